package rssfeed

import (
	"strings"

	"pulse/internal/domain/model"
)

// ClassifyImpact grades a headline by keyword match. The high-impact set
// (macro/policy/crisis terms) takes priority over the medium set; headlines
// matching neither are low. A keyword matches at word starts only: "rate"
// covers "rates" but "war" never matches inside "award".
func ClassifyImpact(headline string, high, medium []string) model.Impact {
	words := strings.Fields(strings.ToLower(headline))
	if matchAny(words, high) {
		return model.ImpactHigh
	}
	if matchAny(words, medium) {
		return model.ImpactMedium
	}
	return model.ImpactLow
}

func matchAny(words, keywords []string) bool {
	for _, w := range words {
		w = strings.Trim(w, ".,:;!?'\"()")
		for _, kw := range keywords {
			if strings.HasPrefix(w, kw) {
				return true
			}
		}
	}
	return false
}
