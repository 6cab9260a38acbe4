package selection

import "strings"

// Qualitative multipliers applied on top of the implied probability.
const (
	confidenceHighBoost   = 1.10
	confidenceMediumBoost = 1.05
	recentWinBoost        = 1.05
	recentLastPenalty     = 0.95
	probabilityCeiling    = 0.99
)

// AdjustedProbability derives a win probability from decimal odds plus
// the collaborator's confidence descriptor and the runner's form string.
// The base is the implied probability 1/odds; confidence and form signals
// compose multiplicatively and the result is clamped so no runner is
// ever treated as certain.
func AdjustedProbability(oddsDec *float64, confidence, form string) float64 {
	if oddsDec == nil || *oddsDec <= 1 {
		return 0
	}
	p := 1 / *oddsDec

	switch c := strings.ToLower(confidence); {
	case strings.Contains(c, "high"):
		p *= confidenceHighBoost
	case strings.Contains(c, "medium"):
		p *= confidenceMediumBoost
	}

	// Form digits are read as recency signals: any win ('1') nudges the
	// probability up, any last place ('0') nudges it down. Both can
	// apply to the same runner.
	if strings.ContainsRune(form, '1') {
		p *= recentWinBoost
	}
	if strings.ContainsRune(form, '0') {
		p *= recentLastPenalty
	}

	if p > probabilityCeiling {
		p = probabilityCeiling
	}
	if p < 0 {
		p = 0
	}
	return p
}
