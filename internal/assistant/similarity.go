package assistant

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum similarity for accepting a non-exact candidate
const DefaultCutoff = 0.70

// Similarity scores two strings in [0, 1]
type Similarity interface {
	Ratio(a, b string) float64
}

// SequenceRatio scores strings by longest matching blocks over their characters
type SequenceRatio struct{}

// Ratio implements Similarity
func (SequenceRatio) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// closestMatch returns the single best candidate scoring at least cutoff against word
func closestMatch(sim Similarity, word string, candidates []string, cutoff float64) (string, bool) {
	best, bestScore := "", -1.0
	for _, c := range candidates {
		score := sim.Ratio(c, word)
		if score >= cutoff && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}
