package roles

import (
	statex "github.com/iafluence/agentic-seller/agent/state"
)

// Config carries the hard commercial limits every role enforces no matter
// what the model replies.
type Config struct {
	// QualificationThreshold is the minimum lead score for Qualified.
	QualificationThreshold float64
	// MaxDiscountPercent caps any discount a role records.
	MaxDiscountPercent float64
	// MaxNegotiationRounds is the round count at which the negotiator hands
	// off to a human instead of calling the model again.
	MaxNegotiationRounds int
	// HistoryWindow is how many trailing messages a role shows the model.
	HistoryWindow int
	// UnqualifiedRoute is where the classifier sends leads below the
	// threshold. Low-score leads still get a pitch by default.
	UnqualifiedRoute statex.NextAction

	Contact ContactInfo
}

// ContactInfo is the human handoff target quoted in closing messages and
// follow-up tasks.
type ContactInfo struct {
	Founder  string
	Email    string
	Phone    string
	Calendar string
	Site     string
}

func (c Config) withDefaults() Config {
	if c.QualificationThreshold <= 0 {
		c.QualificationThreshold = 40
	}
	if c.MaxDiscountPercent <= 0 {
		c.MaxDiscountPercent = 15
	}
	if c.MaxNegotiationRounds <= 0 {
		c.MaxNegotiationRounds = 3
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 5
	}
	if !c.UnqualifiedRoute.Valid() || c.UnqualifiedRoute == statex.NextUnset {
		c.UnqualifiedRoute = statex.NextSeller
	}
	if c.Contact == (ContactInfo{}) {
		c.Contact = ContactInfo{
			Founder:  "Suan Tay",
			Email:    "suan.tay@iafluence.fr",
			Phone:    "06 65 19 76 33",
			Calendar: "https://calendar.app.google/BcE52KKmVRmki1kZ8",
			Site:     "https://iafluence.fr",
		}
	}
	return c
}
