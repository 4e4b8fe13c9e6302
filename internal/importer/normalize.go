package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Normalized is the structured form recovered from a listing's free-text
// title and description. Every extractor has a deterministic fallback,
// so Normalize never fails on malformed input.
type Normalized struct {
	Brand     string
	Model     string
	Reference string
	Year      int
	Condition string

	// YearGuessed is set when no year token was found and the current
	// calendar year was substituted, so review tooling can flag it.
	YearGuessed bool
}

// CanonicalBrands is the fixed brand vocabulary. Detection falls back to
// the first title word (or DefaultBrand) when none of these match.
var CanonicalBrands = []string{
	"Rolex",
	"Patek Philippe",
	"Audemars Piguet",
	"Omega",
	"Cartier",
	"Tudor",
	"Richard Mille",
}

const (
	DefaultBrand      = "Rolex"
	UnlistedReference = "unlisted-reference"
	defaultCondition  = "Excellent"
)

// brandAliases maps each canonical brand to the prefixes sellers use for
// it, longest first. Used both for stripping the brand from the model
// and (via brandAbbreviations) for detection.
var brandAliases = map[string][]string{
	"Rolex":           {"Rolex"},
	"Omega":           {"Omega"},
	"Cartier":         {"Cartier"},
	"Tudor":           {"Tudor"},
	"Richard Mille":   {"Richard Mille", "RM"},
	"Patek Philippe":  {"Patek Philippe", "Patek"},
	"Audemars Piguet": {"Audemars Piguet", "Audemars", "A.P.", "AP"},
}

var (
	// Common obfuscations (digit-for-letter) seen in marketplace titles.
	brandMisspellings = []struct {
		pattern *regexp.Regexp
		brand   string
	}{
		{regexp.MustCompile(`(?i)R0LEX`), "Rolex"},
		{regexp.MustCompile(`(?i)0MEGA`), "Omega"},
	}

	brandAbbreviations = []struct {
		pattern *regexp.Regexp
		brand   string
	}{
		{regexp.MustCompile(`(?i)\bA\.?P\.?\b`), "Audemars Piguet"},
		{regexp.MustCompile(`(?i)\bAUDEMARS\b`), "Audemars Piguet"},
		{regexp.MustCompile(`(?i)\bPATEK\b`), "Patek Philippe"},
		{regexp.MustCompile(`(?i)\bRM\b`), "Richard Mille"},
	}

	yearLabelRe   = regexp.MustCompile(`(?i)Year:\s*(\d{4})`)
	yearTokenRe   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	leadingYearRe = regexp.MustCompile(`^\s*(19|20)\d{2}\s+`)
	refLabelRe    = regexp.MustCompile(`(?i)Ref:?\s*([A-Za-z0-9\-.]+)`)
	parensRe      = regexp.MustCompile(`\(([^)]+)\)`)
	anyParensRe   = regexp.MustCompile(`\([^)]*\)`)
	condLabelRe   = regexp.MustCompile(`(?i)Condition:\s*([^\n\r]+)`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// conditionCanonical maps upper-cased exact forms to their fixed
// title-cased spelling. Anything unmapped is title-cased word by word.
var conditionCanonical = map[string]string{
	"BRAND NEW":        "Brand New",
	"BRAND NEW UNWORN": "Brand New Unworn",
	"NEW UNWORN":       "Brand New Unworn",
	"UNWORN":           "Unworn",
	"MINT":             "Mint",
	"LIKE NEW":         "Like New",
	"EXCELLENT":        "Excellent",
	"VERY GOOD":        "Very Good",
	"GOOD":             "Good",
	"FAIR":             "Fair",
}

// knownConditions is checked by substring when the description carries
// no Condition: label. Longest first so "Very Good" wins over "Good".
var knownConditions = []string{
	"Brand New Unworn",
	"Brand New",
	"Like New",
	"Very Good",
	"Excellent",
	"Unworn",
	"Mint",
	"Good",
	"Fair",
}

// Normalize extracts brand, year, reference, condition and a cleaned
// model name from raw listing text.
func Normalize(title, description string) Normalized {
	n := Normalized{}
	n.Brand = DetectBrand(title)
	n.Year, n.YearGuessed = ParseYear(title, description)
	n.Reference = ParseReference(title, description)
	n.Condition = NormalizeCondition(ParseCondition(description))
	n.Model = deriveModel(title, n.Brand, n.Reference)
	return n
}

// DetectBrand resolves the canonical brand for a title, falling back to
// the first title word that is not a year token, then to DefaultBrand.
func DetectBrand(title string) string {
	normalized := whitespaceRe.ReplaceAllString(strings.TrimSpace(title), " ")

	if brand := DetectCanonicalBrand(normalized); brand != "" {
		return brand
	}

	for _, word := range strings.Fields(normalized) {
		if !yearTokenRe.MatchString(word) {
			return word
		}
	}
	return DefaultBrand
}

// DetectCanonicalBrand matches text against the canonical vocabulary:
// misspellings first, then abbreviations, then a case-insensitive
// substring scan. Returns "" when nothing matches. Matching is
// substring-based rather than whole-word to tolerate punctuation
// variance; a brand name embedded inside another word will
// false-positive, which is accepted for this vocabulary.
func DetectCanonicalBrand(text string) string {
	normalized := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")

	for _, m := range brandMisspellings {
		if m.pattern.MatchString(normalized) {
			return m.brand
		}
	}

	for _, a := range brandAbbreviations {
		if a.pattern.MatchString(normalized) {
			return a.brand
		}
	}

	upper := strings.ToUpper(normalized)
	for _, brand := range CanonicalBrands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}
	return ""
}

// StripBrandPrefix removes a leading brand alias from a model name.
func StripBrandPrefix(model, brand string) string {
	result := strings.TrimSpace(model)
	for _, alias := range aliasesFor(brand) {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(alias) + `\s+`)
		result = re.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}

func aliasesFor(brand string) []string {
	if aliases := brandAliases[brand]; len(aliases) > 0 {
		return aliases
	}
	if brand != "" {
		return []string{brand}
	}
	return nil
}

// ParseYear prefers an explicit Year: label in the description, then the
// first plausible 4-digit year in the title. The returned bool reports
// whether the current calendar year was substituted as a last resort.
func ParseYear(title, description string) (int, bool) {
	if m := yearLabelRe.FindStringSubmatch(description); m != nil {
		return atoi4(m[1]), false
	}
	if m := yearTokenRe.FindString(title); m != "" {
		return atoi4(m), false
	}
	return time.Now().Year(), true
}

// ParseReference prefers a Ref: token in the description, then the first
// parenthesised group in the title.
func ParseReference(title, description string) string {
	if m := refLabelRe.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	if m := parensRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return UnlistedReference
}

// ParseCondition pulls the raw condition text out of a description. The
// result still needs NormalizeCondition.
func ParseCondition(description string) string {
	if m := condLabelRe.FindStringSubmatch(description); m != nil {
		return strings.TrimSpace(m[1])
	}

	lower := strings.ToLower(description)
	for _, known := range knownConditions {
		if strings.Contains(lower, strings.ToLower(known)) {
			return known
		}
	}
	return defaultCondition
}

// NormalizeCondition collapses whitespace and maps recognised values to
// a fixed title-cased vocabulary. It is idempotent: applying it twice
// yields the same result as once.
func NormalizeCondition(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	normalized := whitespaceRe.ReplaceAllString(trimmed, " ")
	if canonical, ok := conditionCanonical[strings.ToUpper(normalized)]; ok {
		return canonical
	}

	words := strings.Split(strings.ToLower(normalized), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// deriveModel cleans the title down to the model name: leading year and
// brand tokens go, the detected reference goes wherever it occurs, and
// leftover parenthesised groups go. An empty result falls back to the
// original title so the model is never blank.
func deriveModel(title, brand, reference string) string {
	model := leadingYearRe.ReplaceAllString(title, "")

	for _, alias := range aliasesFor(brand) {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(alias) + `\s*`)
		if stripped := re.ReplaceAllString(model, ""); stripped != model {
			model = stripped
			break
		}
	}

	if reference != "" && reference != UnlistedReference {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(reference))
		model = re.ReplaceAllString(model, "")
	}

	model = anyParensRe.ReplaceAllString(model, "")
	model = strings.TrimSpace(whitespaceRe.ReplaceAllString(model, " "))
	if model == "" {
		return title
	}
	return model
}

func atoi4(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
