package domain

import (
	"sort"
	"strings"
)

// UnresolvedLocality is the locality key used for records whose locality could
// not be resolved when the global bucket policy is active.
const UnresolvedLocality = "(unresolved)"

// AgeBracket is one of ten sex-specific age ranges in months.
type AgeBracket string

const (
	BracketFemale0To7   AgeBracket = "female_0-7"
	BracketFemale7To12  AgeBracket = "female_7-12"
	BracketFemale12To18 AgeBracket = "female_12-18"
	BracketFemale18To24 AgeBracket = "female_18-24"
	BracketFemaleOver24 AgeBracket = "female_24+"

	BracketMale0To7   AgeBracket = "male_0-7"
	BracketMale7To15  AgeBracket = "male_7-15"
	BracketMale15To18 AgeBracket = "male_15-18"
	BracketMale18To22 AgeBracket = "male_18-22"
	BracketMaleOver22 AgeBracket = "male_22+"
)

// Label returns the range part of the bracket, e.g. "0-7" or "24+".
func (b AgeBracket) Label() string {
	_, label, _ := strings.Cut(string(b), "_")
	return label
}

// Sex returns the sex the bracket belongs to.
func (b AgeBracket) Sex() Sex {
	prefix, _, _ := strings.Cut(string(b), "_")
	switch Sex(prefix) {
	case SexFemale:
		return SexFemale
	case SexMale:
		return SexMale
	}
	return SexUnknown
}

// BracketsFor lists the five brackets of a sex in ascending age order.
func BracketsFor(sex Sex) []AgeBracket {
	switch sex {
	case SexFemale:
		return []AgeBracket{BracketFemale0To7, BracketFemale7To12, BracketFemale12To18, BracketFemale18To24, BracketFemaleOver24}
	case SexMale:
		return []AgeBracket{BracketMale0To7, BracketMale7To15, BracketMale15To18, BracketMale18To22, BracketMaleOver22}
	}
	return nil
}

// BreedTally holds the counts of one (locality, breed) bucket.
type BreedTally struct {
	Total        int                `json:"total"`
	MaleCount    int                `json:"male_count"`
	FemaleCount  int                `json:"female_count"`
	Unclassified int                `json:"unclassified_sex_count"`
	PerBracket   map[AgeBracket]int `json:"per_bracket"`
}

// LocalityTally holds the locality-wide counts and the per-breed buckets.
// Outbound netting is applied to the locality-wide counts only.
type LocalityTally struct {
	Total        int                   `json:"total"`
	MaleCount    int                   `json:"male_count"`
	FemaleCount  int                   `json:"female_count"`
	Unclassified int                   `json:"unclassified_sex_count"`
	Breeds       map[string]BreedTally `json:"breeds"`
}

// CensusTally is the result of one aggregation. It is built once and handed out
// only after netting; callers must treat it as read-only.
type CensusTally struct {
	Localities map[string]LocalityTally `json:"localities"`
}

// Locality returns the tally of one locality.
func (t CensusTally) Locality(name string) (LocalityTally, bool) {
	lt, ok := t.Localities[name]
	return lt, ok
}

// Bucket returns the (locality, breed) bucket.
func (t CensusTally) Bucket(locality, breed string) (BreedTally, bool) {
	lt, ok := t.Localities[locality]
	if !ok {
		return BreedTally{}, false
	}
	bt, ok := lt.Breeds[breed]
	return bt, ok
}

// LocalityNames returns the locality keys in lexical order.
func (t CensusTally) LocalityNames() []string {
	names := make([]string, 0, len(t.Localities))
	for name := range t.Localities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total sums the netted locality totals.
func (t CensusTally) Total() int {
	total := 0
	for _, lt := range t.Localities {
		total += lt.Total
	}
	return total
}
