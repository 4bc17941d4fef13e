package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/seller.txt
	sellerRaw string

	//go:embed template/negotiator.txt
	negotiatorRaw string

	//go:embed template/supervisor.txt
	supervisorRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
	Seller     string
	Negotiator string
	Supervisor string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Seller:     strings.TrimSpace(sellerRaw),
		Negotiator: strings.TrimSpace(negotiatorRaw),
		Supervisor: strings.TrimSpace(supervisorRaw),
	}
}
