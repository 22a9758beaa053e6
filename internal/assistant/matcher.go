package assistant

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ItemMatch is one resolved item mention with its quantity
type ItemMatch struct {
	ItemID   uint
	Quantity int
}

// Matcher resolves item and category mentions in free text
type Matcher struct {
	sim    Similarity
	cutoff float64
}

// NewMatcher creates a matcher. A nil similarity uses SequenceRatio.
func NewMatcher(sim Similarity, cutoff float64) *Matcher {
	if sim == nil {
		sim = SequenceRatio{}
	}
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	return &Matcher{sim: sim, cutoff: cutoff}
}

// significantWords returns the words of a lowered item name longer than two characters
func significantWords(name string) []string {
	var words []string
	for _, w := range strings.Fields(name) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func containsAll(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// MatchItems maps text to item mentions. Each item contributes at most one match.
func (m *Matcher) MatchItems(text string, menu []MenuEntry) []ItemMatch {
	normalized := Normalize(text)
	seen := make(map[uint]bool)
	var matches []ItemMatch

	for _, item := range menu {
		if seen[item.ID] {
			continue
		}
		name := strings.ToLower(item.Name)
		words := significantWords(name)
		token := name
		if len(words) > 0 {
			token = words[len(words)-1]
		}

		direct := strings.Contains(normalized, name) || containsAll(normalized, words)
		if !direct {
			if _, ok := closestMatch(m.sim, name, []string{normalized}, m.cutoff); !ok {
				continue
			}
		}
		matches = append(matches, ItemMatch{ItemID: item.ID, Quantity: ExtractQuantity(normalized, token)})
		seen[item.ID] = true
	}
	return matches
}

// ResolveItem returns the name of the single item the text refers to
func (m *Matcher) ResolveItem(text string, menu []MenuEntry) (string, bool) {
	normalized := Normalize(text)
	names := make([]string, 0, len(menu))
	for _, item := range menu {
		name := strings.ToLower(item.Name)
		if strings.Contains(normalized, name) {
			return item.Name, true
		}
		names = append(names, name)
	}
	best, ok := closestMatch(m.sim, normalized, names, m.cutoff)
	if !ok {
		return "", false
	}
	for _, item := range menu {
		if strings.ToLower(item.Name) == best {
			return item.Name, true
		}
	}
	return "", false
}

// ResolveCategory finds a category named in the text, falling back to one fuzzy candidate
// scored against the whole message
func (m *Matcher) ResolveCategory(text string, categories []string) (string, bool) {
	lowered := strings.ToLower(text)
	lowerNames := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(c)) {
			return c, true
		}
		lowerNames = append(lowerNames, strings.ToLower(c))
	}
	best, ok := closestMatch(m.sim, lowered, lowerNames, m.cutoff)
	if !ok {
		return "", false
	}
	for _, c := range categories {
		if strings.ToLower(c) == best {
			return c, true
		}
	}
	return "", false
}

// ExactCategory finds a category named verbatim in the text
func ExactCategory(text string, categories []string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, c := range categories {
		if c != "" && strings.Contains(lowered, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

// ResolveRemovals returns the ids of items whose full name appears in the text.
// No fuzzy matching, so a near miss never deletes the wrong line.
func ResolveRemovals(text string, menu []MenuEntry) []uint {
	normalized := Normalize(text)
	var ids []uint
	for _, item := range menu {
		if strings.Contains(normalized, strings.ToLower(item.Name)) {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// ExtractQuantity finds the count ordered for the item whose last significant word is token.
// "2 cappuccino" and "cappuccino x2" both yield 2; no count yields 1.
func ExtractQuantity(text, token string) int {
	quoted := regexp.QuoteMeta(token)
	before := regexp.MustCompile(`(\d+)\s+` + quoted)
	if sm := before.FindStringSubmatch(text); sm != nil {
		return atLeastOne(sm[1])
	}
	after := regexp.MustCompile(quoted + `\s*x?(\d+)`)
	if sm := after.FindStringSubmatch(text); sm != nil {
		return atLeastOne(sm[1])
	}
	return 1
}

func atLeastOne(digits string) int {
	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		return MaxQuantity
	}
	if err != nil {
		return 1
	}
	return clampQuantity(n)
}
