package locality_test

import (
	"testing"

	"herd-census/internal/locality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSites() []locality.Site {
	return []locality.Site{
		{
			Name:          "Site-A",
			TaxIDs:        []string{"11.111.111/0001-11"},
			NameFragments: []string{"boa vista", "agropecuaria norte"},
		},
		{
			Name:          "Site-B",
			TaxIDs:        []string{"22.222.222/0001-22", "123.456.789-00"},
			NameFragments: []string{"santa rita"},
		},
	}
}

func testResolver() *locality.Resolver {
	return locality.NewDefaultResolver(testSites(), []locality.Exception{
		{DocumentID: "nf-000777", Locality: "Site-A"},
	}, 0.25)
}

func TestResolver_PriorityChain(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name         string
		subject      locality.Subject
		wantLocality string
		wantStrategy string
		wantOK       bool
	}{
		{
			name:         "explicit tag wins over everything",
			subject:      locality.Subject{DocumentIDs: []string{"NF-000777"}, LocalityTag: "site-b", TaxIDs: []string{"11111111000111"}},
			wantLocality: "Site-B",
			wantStrategy: locality.StrategyExplicitTag,
			wantOK:       true,
		},
		{
			name:         "unknown explicit tag is kept verbatim",
			subject:      locality.Subject{LocalityTag: " Retiro Velho "},
			wantLocality: "Retiro Velho",
			wantStrategy: locality.StrategyExplicitTag,
			wantOK:       true,
		},
		{
			name:         "exception list beats tax id",
			subject:      locality.Subject{DocumentIDs: []string{"42", " NF-000777"}, TaxIDs: []string{"22.222.222/0001-22"}},
			wantLocality: "Site-A",
			wantStrategy: locality.StrategyExceptionList,
			wantOK:       true,
		},
		{
			name: "tax id beats a name fragment of another site",
			subject: locality.Subject{
				DocumentIDs:      []string{"NF-1"},
				TaxIDs:           []string{"22222222000122"},
				CounterpartyName: "Fazenda Boa Vista Ltda",
			},
			wantLocality: "Site-B",
			wantStrategy: locality.StrategyTaxID,
			wantOK:       true,
		},
		{
			name:         "any of several tax ids",
			subject:      locality.Subject{TaxIDs: []string{"99", "12345678900"}},
			wantLocality: "Site-B",
			wantStrategy: locality.StrategyTaxID,
			wantOK:       true,
		},
		{
			name:         "name fragment is case and accent insensitive",
			subject:      locality.Subject{CounterpartyName: "FAZENDA SANTA RITÁ"},
			wantLocality: "Site-B",
			wantStrategy: locality.StrategyNameFragment,
			wantOK:       true,
		},
		{
			name:         "fuzzy name catches a typo",
			subject:      locality.Subject{CounterpartyName: "Agropecuaria Nort LTDA"},
			wantLocality: "Site-A",
			wantStrategy: locality.StrategyFuzzyName,
			wantOK:       true,
		},
		{
			name:    "nothing matches",
			subject: locality.Subject{DocumentIDs: []string{"NF-9"}, TaxIDs: []string{"000"}, CounterpartyName: "Frigorifico Central"},
			wantOK:  false,
		},
		{
			name:   "empty subject",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.subject)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLocality, got.Locality)
				assert.Equal(t, tt.wantStrategy, got.Strategy)
			}
		})
	}
}

func TestResolver_Strategies(t *testing.T) {
	assert.Equal(t, []string{
		locality.StrategyExplicitTag,
		locality.StrategyExceptionList,
		locality.StrategyTaxID,
		locality.StrategyNameFragment,
		locality.StrategyFuzzyName,
	}, testResolver().Strategies())

	noFuzzy := locality.NewDefaultResolver(testSites(), nil, 0)
	assert.NotContains(t, noFuzzy.Strategies(), locality.StrategyFuzzyName)
}

func TestNameFragment_LongestWins(t *testing.T) {
	s := locality.NewNameFragment([]locality.Site{
		{Name: "Short", NameFragments: []string{"vista"}},
		{Name: "Long", NameFragments: []string{"boa vista"}},
	})

	got, ok := s.Resolve(locality.Subject{CounterpartyName: "Fazenda Boa Vista"})
	require.True(t, ok)
	assert.Equal(t, "Long", got)
}

func TestFuzzyName_TieIsNoMatch(t *testing.T) {
	s := locality.NewFuzzyName([]locality.Site{
		{Name: "One", NameFragments: []string{"santa rosa"}},
		{Name: "Two", NameFragments: []string{"santa rosa"}},
	}, 0.3)

	_, ok := s.Resolve(locality.Subject{CounterpartyName: "Santa Roza"})
	assert.False(t, ok)
}

func TestFuzzyName_ThresholdIsStrict(t *testing.T) {
	s := locality.NewFuzzyName([]locality.Site{{Name: "A", NameFragments: []string{"abcd"}}}, 0.25)

	_, ok := s.Resolve(locality.Subject{CounterpartyName: "abce"})
	assert.False(t, ok, "distance 1 of 4 equals the threshold and must not match")

	got, ok := locality.NewFuzzyName([]locality.Site{{Name: "A", NameFragments: []string{"abcd"}}}, 0.3).
		Resolve(locality.Subject{CounterpartyName: "abce"})
	require.True(t, ok)
	assert.Equal(t, "A", got)
}

func TestTaxID_FirstSiteKeepsDuplicate(t *testing.T) {
	s := locality.NewTaxID([]locality.Site{
		{Name: "First", TaxIDs: []string{"1-2-3"}},
		{Name: "Second", TaxIDs: []string{"123"}},
	})

	got, ok := s.Resolve(locality.Subject{TaxIDs: []string{"123"}})
	require.True(t, ok)
	assert.Equal(t, "First", got)
}
