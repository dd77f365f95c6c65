package normalize_test

import (
	"testing"

	"herd-census/internal/domain"
	"herd-census/internal/normalize"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSex(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Sex
	}{
		{name: "portuguese male", raw: "Macho", want: domain.SexMale},
		{name: "male with qualifier", raw: "macho castrado", want: domain.SexMale},
		{name: "single letter male", raw: " M ", want: domain.SexMale},
		{name: "accented female", raw: "Fêmea", want: domain.SexFemale},
		{name: "unaccented female", raw: "FEMEA", want: domain.SexFemale},
		{name: "single letter female", raw: "f", want: domain.SexFemale},
		{name: "english female is not male", raw: "Female", want: domain.SexFemale},
		{name: "english male", raw: "male", want: domain.SexMale},
		{name: "female inside a phrase", raw: "novilha fêmea", want: domain.SexFemale},
		{name: "ambiguous", raw: "macho/fêmea", want: domain.SexUnknown},
		{name: "single letter is not a substring token", raw: "mf", want: domain.SexUnknown},
		{name: "empty", raw: "", want: domain.SexUnknown},
		{name: "blank", raw: "   ", want: domain.SexUnknown},
		{name: "garbage", raw: "???", want: domain.SexUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.NormalizeSex(tt.raw))
		})
	}
}

func TestSexNormalizer_CustomTokens(t *testing.T) {
	n := normalize.NewSexNormalizer([]string{"toro"}, []string{"vaca"})

	assert.Equal(t, domain.SexMale, n.Normalize("Toro"))
	assert.Equal(t, domain.SexFemale, n.Normalize("vaca leiteira"))
	assert.Equal(t, domain.SexUnknown, n.Normalize("macho"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "femea", normalize.Fold("  Fêmea "))
	assert.Equal(t, "acao", normalize.Fold("AÇÃO"))
}
