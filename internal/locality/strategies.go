package locality

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"herd-census/internal/normalize"
)

// Strategy names, as recorded in the audit trail.
const (
	StrategyExplicitTag   = "explicit_tag"
	StrategyExceptionList = "exception_list"
	StrategyTaxID         = "tax_id"
	StrategyNameFragment  = "name_fragment"
	StrategyFuzzyName     = "fuzzy_name"
)

// ExplicitTag trusts a locality previously assigned to the item. A tag naming a
// known site is returned with the site's spelling.
type ExplicitTag struct {
	known map[string]string
}

// NewExplicitTag indexes the configured site names.
func NewExplicitTag(sites []Site) *ExplicitTag {
	known := make(map[string]string, len(sites))
	for _, s := range sites {
		known[normalize.Fold(s.Name)] = s.Name
	}
	return &ExplicitTag{known: known}
}

// Name implements Strategy.
func (e *ExplicitTag) Name() string { return StrategyExplicitTag }

// Resolve returns the tag, respelled when it names a known site.
func (e *ExplicitTag) Resolve(s Subject) (string, bool) {
	tag := strings.TrimSpace(s.LocalityTag)
	if tag == "" {
		return "", false
	}
	if name, ok := e.known[normalize.Fold(tag)]; ok {
		return name, true
	}
	return tag, true
}

// ExceptionList is the small table of documents known to be mis-tagged.
type ExceptionList struct {
	byDocument map[string]string
}

// NewExceptionList indexes the exceptions by document id.
func NewExceptionList(exceptions []Exception) *ExceptionList {
	m := make(map[string]string, len(exceptions))
	for _, ex := range exceptions {
		if key := documentKey(ex.DocumentID); key != "" {
			m[key] = ex.Locality
		}
	}
	return &ExceptionList{byDocument: m}
}

// Name implements Strategy.
func (e *ExceptionList) Name() string { return StrategyExceptionList }

// Resolve returns the locality of the first listed document id.
func (e *ExceptionList) Resolve(s Subject) (string, bool) {
	for _, id := range s.DocumentIDs {
		if loc, ok := e.byDocument[documentKey(id)]; ok {
			return loc, true
		}
	}
	return "", false
}

// TaxID matches tax identifiers digit for digit, ignoring punctuation.
type TaxID struct {
	byDigits map[string]string
}

// NewTaxID indexes every site tax id by its digits. The first site listing an id keeps it.
func NewTaxID(sites []Site) *TaxID {
	m := make(map[string]string)
	for _, site := range sites {
		for _, id := range site.TaxIDs {
			d := onlyDigits(id)
			if d == "" {
				continue
			}
			if _, taken := m[d]; !taken {
				m[d] = site.Name
			}
		}
	}
	return &TaxID{byDigits: m}
}

// Name implements Strategy.
func (t *TaxID) Name() string { return StrategyTaxID }

// Resolve returns the site owning the first matching tax id.
func (t *TaxID) Resolve(s Subject) (string, bool) {
	for _, id := range s.TaxIDs {
		if loc, ok := t.byDigits[onlyDigits(id)]; ok {
			return loc, true
		}
	}
	return "", false
}

type fragment struct {
	site string
	text string
}

func foldFragments(sites []Site) []fragment {
	var out []fragment
	for _, site := range sites {
		for _, f := range site.NameFragments {
			if folded := normalize.Fold(f); folded != "" {
				out = append(out, fragment{site: site.Name, text: folded})
			}
		}
	}
	return out
}

// NameFragment looks for a known fragment inside the counterparty name. The
// longest matching fragment wins; equal lengths keep configuration order.
type NameFragment struct {
	fragments []fragment
}

// NewNameFragment folds the name fragments of every site.
func NewNameFragment(sites []Site) *NameFragment {
	return &NameFragment{fragments: foldFragments(sites)}
}

// Name implements Strategy.
func (n *NameFragment) Name() string { return StrategyNameFragment }

// Resolve returns the site of the longest fragment found in the counterparty name.
func (n *NameFragment) Resolve(s Subject) (string, bool) {
	name := normalize.Fold(s.CounterpartyName)
	if name == "" {
		return "", false
	}
	best, bestLen := "", 0
	for _, f := range n.fragments {
		if l := len(f.text); l > bestLen && strings.Contains(name, f.text) {
			best, bestLen = f.site, l
		}
	}
	return best, bestLen > 0
}

// FuzzyName compares each fragment with every word window of the same length
// in the counterparty name. A site is accepted when its best edit-distance
// ratio is below the threshold and no other site scores as well.
type FuzzyName struct {
	fragments []fragment
	ratio     float64
}

// NewFuzzyName creates the strategy. A ratio of 0 never matches.
func NewFuzzyName(sites []Site, ratio float64) *FuzzyName {
	return &FuzzyName{fragments: foldFragments(sites), ratio: ratio}
}

// Name implements Strategy.
func (f *FuzzyName) Name() string { return StrategyFuzzyName }

// Resolve returns the single site closest to the counterparty name.
func (f *FuzzyName) Resolve(s Subject) (string, bool) {
	words := strings.Fields(normalize.Fold(s.CounterpartyName))
	if len(words) == 0 {
		return "", false
	}

	bestBySite := make(map[string]float64)
	for _, frag := range f.fragments {
		n := len(strings.Fields(frag.text))
		for i := 0; i+n <= len(words); i++ {
			window := strings.Join(words[i:i+n], " ")
			r := distanceRatio(window, frag.text)
			if cur, ok := bestBySite[frag.site]; !ok || r < cur {
				bestBySite[frag.site] = r
			}
		}
	}

	winner, best, tie := "", f.ratio, false
	for site, r := range bestBySite {
		switch {
		case r < best:
			winner, best, tie = site, r, false
		case r == best && winner != "":
			tie = true
		}
	}
	if winner == "" || tie {
		return "", false
	}
	return winner, true
}

func distanceRatio(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(maxLen)
}
