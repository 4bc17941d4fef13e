package dispatcher

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// defaultConversionPhrases are the acceptance signals scanned for after an
// offer is on the table. English and French prospects are both served.
var defaultConversionPhrases = []string{
	"yes", "sure", "ok", "okay", "let's do it", "let's go",
	"sign me up", "i'll take it", "sounds good", "deal",
	"agreed", "accept", "i'm in", "let's start", "proceed",
	"d'accord", "je suis intéressé", "allons-y", "banco",
	"on y va", "je prends", "je signe", "c'est bon",
	"ça marche", "parfait", "je valide", "on fonce",
}

// conversionMatcher finds acceptance phrases on word boundaries, so "ok" never
// fires inside "TikTok". Boundaries are checked per rune, which keeps accented
// phrases intact.
type conversionMatcher struct {
	phrases []string
}

func newConversionMatcher(phrases []string) *conversionMatcher {
	if len(phrases) == 0 {
		phrases = defaultConversionPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &conversionMatcher{phrases: lowered}
}

func (m *conversionMatcher) Matches(message string) bool {
	haystack := strings.ToLower(message)
	if haystack == "" {
		return false
	}
	for _, phrase := range m.phrases {
		if containsWord(haystack, phrase) {
			return true
		}
	}
	return false
}

func containsWord(haystack, phrase string) bool {
	for offset := 0; ; {
		idx := strings.Index(haystack[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(s string, start int) bool {
	if start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:start])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, end int) bool {
	if end >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
