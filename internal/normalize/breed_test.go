package normalize_test

import (
	"testing"

	"herd-census/internal/normalize"

	"github.com/stretchr/testify/assert"
)

func newCorrector() *normalize.BreedCorrector {
	catalog := normalize.NewBreedCatalog(map[string][]string{
		"Nelore": {"nelori", "nellore"},
		"Angus":  {"aberdeen angus", "black angus"},
	})
	return normalize.NewBreedCorrector(map[string]string{
		"nel": "Nelore",
		"ANG": "Angus",
		"GIR": "Gir Leiteiro",
	}, catalog)
}

func TestBreedCorrector_Correct(t *testing.T) {
	c := newCorrector()

	tests := []struct {
		name     string
		series   string
		declared string
		want     string
	}{
		{name: "series overrides declared breed", series: "ANG", declared: "Nelore", want: "Angus"},
		{name: "series lookup is case insensitive", series: " nel ", declared: "Angus", want: "Nelore"},
		{name: "unknown series keeps declared breed", series: "XYZ", declared: "Brahman", want: "Brahman"},
		{name: "no series canonicalizes alias", series: "", declared: "NELLORE", want: "Nelore"},
		{name: "accent and spacing collapse", series: "", declared: "  Aberdeen   Angus ", want: "Angus"},
		{name: "empty declared breed", series: "", declared: "", want: normalize.NotInformed},
		{name: "blank declared breed with unknown series", series: "ZZ", declared: "  ", want: normalize.NotInformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Correct(tt.series, tt.declared))
		})
	}
}

func TestBreedCorrector_Idempotent(t *testing.T) {
	c := newCorrector()
	series := []string{"", "NEL", "ang", "GIR", "XYZ"}
	breeds := []string{"", "nelori", "Angus", "black angus", "Brahman", "  gir  ", normalize.NotInformed}

	for _, s := range series {
		for _, b := range breeds {
			once := c.Correct(s, b)
			assert.Equal(t, once, c.Correct(s, once), "series=%q breed=%q", s, b)
		}
	}
}

func TestBreedCatalog_CanonicalWinsOverAlias(t *testing.T) {
	catalog := normalize.NewBreedCatalog(map[string][]string{
		"Gir":          {"gir leiteiro"},
		"Gir Leiteiro": {"girolando"},
	})

	assert.Equal(t, "Gir Leiteiro", catalog.Canonical("GIR LEITEIRO"))
	assert.Equal(t, "Gir Leiteiro", catalog.Canonical("girolando"))
	assert.Equal(t, "Gir", catalog.Canonical("gir"))
}

func TestSeriesFromCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "NEL0042", want: "NEL"},
		{code: "ang-17", want: "ANG"},
		{code: "AB 9", want: "AB"},
		{code: "ABCDE1", want: "ABCDE"},
		{code: "ABCDEF1", want: ""},
		{code: "A12", want: ""},
		{code: "Mimosa", want: ""},
		{code: "1234", want: ""},
		{code: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.SeriesFromCode(tt.code))
		})
	}
}
