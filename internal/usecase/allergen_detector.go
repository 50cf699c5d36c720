package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// wordClass matches what counts as part of a word when looking for keyword
// boundaries: letters, digits and underscore in any script
const wordClass = `\p{L}\p{N}_`

// Package-level compiled regex pattern for performance
var allergenSeparatorRegex = regexp.MustCompile(`[^` + wordClass + `']`)

// AllergenCategory is one allergen label with the keywords that trigger it.
// Keywords are checked in the listed order.
type AllergenCategory struct {
	Name     string
	Keywords []string
}

// defaultAllergenCategories is the built-in keyword table
var defaultAllergenCategories = []AllergenCategory{
	{Name: "milk/dairy", Keywords: []string{"milk", "lactose", "whey", "casein", "butter", "cream", "milk chocolate"}},
	{Name: "peanuts", Keywords: []string{"peanut", "peanuts", "peanut butter"}},
	{Name: "tree nuts", Keywords: []string{"almond", "hazelnut", "cashew", "pistachio", "pecan", "walnut", "brazil nut", "macadamia", "coconut"}},
	{Name: "soy", Keywords: []string{"soy", "soya", "soybean", "soy lecithin"}},
	{Name: "gluten/wheat", Keywords: []string{"wheat", "barley", "rye", "malt", "spelt"}},
	{Name: "eggs", Keywords: []string{"egg", "albumen", "egg white", "egg yolk"}},
	{Name: "fish", Keywords: []string{"fish", "salmon", "tuna", "anchovy", "cod"}},
	{Name: "shellfish", Keywords: []string{"shrimp", "crab", "lobster", "prawn"}},
	{Name: "sesame", Keywords: []string{"sesame", "tahini", "sesamol"}},
	{Name: "mustard", Keywords: []string{"mustard"}},
}

// DefaultAllergenCategories returns a copy of the built-in keyword table
func DefaultAllergenCategories() []AllergenCategory {
	out := make([]AllergenCategory, len(defaultAllergenCategories))
	for i, c := range defaultAllergenCategories {
		out[i] = AllergenCategory{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// AllergenSet holds the detected category labels
type AllergenSet map[string]struct{}

// Has reports whether the category was detected
func (s AllergenSet) Has(category string) bool {
	_, ok := s[category]
	return ok
}

// Sorted returns the detected labels in alphabetical order
func (s AllergenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
}

// AllergenDetector scans free text for whole-word allergen keywords.
// It is immutable after construction and safe for concurrent use.
type AllergenDetector struct {
	categories []compiledCategory
}

// NewAllergenDetector compiles the keyword table once. A nil or empty table
// selects the built-in categories.
func NewAllergenDetector(categories []AllergenCategory) *AllergenDetector {
	if len(categories) == 0 {
		categories = defaultAllergenCategories
	}

	compiled := make([]compiledCategory, 0, len(categories))
	for _, category := range categories {
		cc := compiledCategory{name: category.Name}
		for _, kw := range category.Keywords {
			cc.patterns = append(cc.patterns, keywordPattern(kw))
		}
		compiled = append(compiled, cc)
	}

	return &AllergenDetector{categories: compiled}
}

// keywordPattern anchors the literal keyword between word boundaries
func keywordPattern(keyword string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(keyword))
	return regexp.MustCompile(`(?:^|[^` + wordClass + `])` + quoted + `(?:[^` + wordClass + `]|$)`)
}

// Detect returns every category with at least one keyword present in text
// as a standalone token sequence. Matching is case-insensitive; "soybean"
// never satisfies the keyword "soy".
func (d *AllergenDetector) Detect(text string) AllergenSet {
	found := AllergenSet{}
	if text == "" {
		return found
	}

	normalized := normalizeForDetection(text)
	for _, category := range d.categories {
		for _, pattern := range category.patterns {
			if pattern.MatchString(normalized) {
				found[category.name] = struct{}{}
				break
			}
		}
	}

	return found
}

// Categories returns the category labels in declared order
func (d *AllergenDetector) Categories() []string {
	out := make([]string, len(d.categories))
	for i, c := range d.categories {
		out[i] = c.name
	}
	return out
}

// normalizeForDetection lowercases text and turns every character that is
// neither a word character nor an apostrophe into a space
func normalizeForDetection(text string) string {
	return allergenSeparatorRegex.ReplaceAllString(strings.ToLower(text), " ")
}
