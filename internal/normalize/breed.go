package normalize

import (
	"strings"
	"unicode"
)

// NotInformed is the breed reported when neither the series table nor the
// record itself names one.
const NotInformed = "Not informed"

// BreedCatalog maps breed spellings onto canonical names.
type BreedCatalog struct {
	aliases map[string]string
}

// NewBreedCatalog takes canonical name -> aliases. Every canonical name is also
// an alias of itself and wins over a clashing alias of another breed.
func NewBreedCatalog(aliases map[string][]string) *BreedCatalog {
	c := &BreedCatalog{aliases: make(map[string]string)}
	for canonical, list := range aliases {
		for _, alias := range list {
			if f := Fold(alias); f != "" {
				c.aliases[f] = canonical
			}
		}
	}
	for canonical := range aliases {
		c.aliases[Fold(canonical)] = canonical
	}
	return c
}

// Canonical returns the canonical breed for raw, or raw with its whitespace
// collapsed when no alias matches.
func (c *BreedCatalog) Canonical(raw string) string {
	trimmed := strings.Join(strings.Fields(raw), " ")
	if trimmed == "" {
		return ""
	}
	if c != nil {
		if canonical, ok := c.aliases[Fold(trimmed)]; ok {
			return canonical
		}
	}
	return trimmed
}

// BreedCorrector rewrites a declared breed from the identity-series table,
// which is treated as ground truth.
type BreedCorrector struct {
	series  map[string]string
	catalog *BreedCatalog
}

// NewBreedCorrector copies the series table; keys are matched case-insensitively.
func NewBreedCorrector(series map[string]string, catalog *BreedCatalog) *BreedCorrector {
	c := &BreedCorrector{series: make(map[string]string, len(series)), catalog: catalog}
	for k, v := range series {
		if key := seriesKey(k); key != "" {
			c.series[key] = v
		}
	}
	return c
}

// Correct is pure and idempotent: Correct(s, Correct(s, b)) == Correct(s, b).
func (c *BreedCorrector) Correct(identitySeries, declaredBreed string) string {
	if key := seriesKey(identitySeries); key != "" {
		if breed, ok := c.series[key]; ok {
			return breed
		}
	}
	if breed := c.catalog.Canonical(declaredBreed); breed != "" {
		return breed
	}
	return NotInformed
}

// SeriesFromCode derives the identity series from an identification code such
// as "NEL0042": the leading 2 to 5 letters, provided digits follow.
func SeriesFromCode(code string) string {
	code = strings.TrimSpace(code)
	letters := 0
	for _, r := range code {
		if !unicode.IsLetter(r) {
			break
		}
		letters++
	}
	if letters < 2 || letters > 5 {
		return ""
	}
	prefix := string([]rune(code)[:letters])
	rest := strings.TrimLeft(code[len(prefix):], " -_/")
	if rest == "" || !unicode.IsDigit([]rune(rest)[0]) {
		return ""
	}
	return strings.ToUpper(prefix)
}

func seriesKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
