package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"herd-census/internal/domain"
)

// DescriptorRule maps a canonical age-range token to a representative age.
type DescriptorRule struct {
	Token  string
	Months float64
}

// AgeDescriptors infers an age in months from a free-text age-range descriptor.
type AgeDescriptors struct {
	rules []DescriptorRule
}

var digitWordDigit = regexp.MustCompile(`(\d)(a|ate|to)(\d)`)

// NewAgeDescriptors validates the priority-ordered table. A token containing an
// earlier token could never match and is rejected.
func NewAgeDescriptors(rules []DescriptorRule) (*AgeDescriptors, error) {
	out := make([]DescriptorRule, 0, len(rules))
	for i, r := range rules {
		tok := normalizeDescriptor(r.Token)
		if tok == "" {
			return nil, fmt.Errorf("%w: age descriptor %d has an empty token", domain.ErrInvalidTables, i)
		}
		if r.Months < 0 {
			return nil, fmt.Errorf("%w: age descriptor %q has negative months", domain.ErrInvalidTables, r.Token)
		}
		for _, earlier := range out {
			if strings.Contains(tok, earlier.Token) {
				return nil, fmt.Errorf("%w: age descriptor %q is shadowed by earlier %q", domain.ErrInvalidTables, r.Token, earlier.Token)
			}
		}
		out = append(out, DescriptorRule{Token: tok, Months: r.Months})
	}
	return &AgeDescriptors{rules: out}, nil
}

// Months returns the months of the first rule whose token occurs in descriptor.
func (d *AgeDescriptors) Months(descriptor string) (float64, bool) {
	s := normalizeDescriptor(descriptor)
	if s == "" {
		return 0, false
	}
	for _, r := range d.rules {
		if strings.Contains(s, r.Token) {
			return r.Months, true
		}
	}
	return 0, false
}

// Rules returns a copy of the normalized table.
func (d *AgeDescriptors) Rules() []DescriptorRule {
	return append([]DescriptorRule(nil), d.rules...)
}

func normalizeDescriptor(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == '-' || r == '\\' {
			return '/'
		}
		return r
	}, Fold(s))
	return digitWordDigit.ReplaceAllString(s, "$1/$3")
}
