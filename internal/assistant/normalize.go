package assistant

import (
	"regexp"
	"strings"
)

type correction struct {
	pattern *regexp.Regexp
	correct string
}

// Whole-word corrections. No corrected form is itself a misspelling in the
// table, which keeps Normalize idempotent.
var typoTable = buildCorrections([][2]string{
	{"coffe", "coffee"},
	{"cofee", "coffee"},
	{"expresso", "espresso"},
	{"mocctail", "mocktail"},
	{"mojitoo", "mojito"},
	{"samosaa", "samosa"},
	{"samos", "samosa"},
	{"lattte", "latte"},
	{"capuccino", "cappuccino"},
	{"capucino", "cappuccino"},
	{"piza", "pizza"},
	{"biryanni", "biryani"},
	{"biriyani", "biryani"},
})

func buildCorrections(pairs [][2]string) []correction {
	out := make([]correction, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, correction{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(p[0]) + `\b`),
			correct: p[1],
		})
	}
	return out
}

// Normalize lower-cases text and fixes common misspellings of menu words
func Normalize(text string) string {
	out := strings.ToLower(text)
	for _, c := range typoTable {
		out = c.pattern.ReplaceAllLiteralString(out, c.correct)
	}
	return out
}
