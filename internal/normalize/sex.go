package normalize

import (
	"strings"
	"unicode/utf8"

	"herd-census/internal/domain"
)

var (
	defaultMaleTokens   = []string{"macho", "m", "male"}
	defaultFemaleTokens = []string{"fêmea", "femea", "f", "female"}
)

// SexNormalizer maps user-entered sex text onto domain.Sex.
type SexNormalizer struct {
	male   []string
	female []string
}

// NewSexNormalizer builds a normalizer from token lists. Tokens are folded.
func NewSexNormalizer(male, female []string) *SexNormalizer {
	return &SexNormalizer{male: foldAll(male), female: foldAll(female)}
}

var defaultSex = NewSexNormalizer(defaultMaleTokens, defaultFemaleTokens)

// NormalizeSex normalizes with the default token sets.
func NormalizeSex(raw string) domain.Sex {
	return defaultSex.Normalize(raw)
}

// Normalize never fails: empty, unmatched and ambiguous input all yield
// domain.SexUnknown. Single-letter tokens only match the whole input; longer
// tokens also match as substrings.
func (n *SexNormalizer) Normalize(raw string) domain.Sex {
	s := Fold(raw)
	if s == "" {
		return domain.SexUnknown
	}

	female := matchesAny(s, n.female)

	// "female" contains "male": take female words out before looking for male ones.
	rest := s
	for _, tok := range n.female {
		if utf8.RuneCountInString(tok) > 1 {
			rest = strings.ReplaceAll(rest, tok, " ")
		}
	}
	male := matchesAny(strings.TrimSpace(rest), n.male)

	switch {
	case female && !male:
		return domain.SexFemale
	case male && !female:
		return domain.SexMale
	}
	return domain.SexUnknown
}

func matchesAny(s string, tokens []string) bool {
	if s == "" {
		return false
	}
	for _, tok := range tokens {
		if s == tok {
			return true
		}
		if utf8.RuneCountInString(tok) > 1 && strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
