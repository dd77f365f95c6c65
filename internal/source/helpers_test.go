package source_test

import (
	"time"

	"herd-census/internal/locality"
	"herd-census/internal/normalize"
	"herd-census/internal/source"
)

var (
	periodStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func testDeps() source.Deps {
	catalog := normalize.NewBreedCatalog(map[string][]string{"Nelore": {"nelori"}})
	sites := []locality.Site{
		{Name: "Site-A", TaxIDs: []string{"11.111.111/0001-11"}, NameFragments: []string{"boa vista"}},
		{Name: "Site-B", TaxIDs: []string{"22.222.222/0001-22"}, NameFragments: []string{"santa rita"}},
	}
	return source.Deps{
		Corrector: normalize.NewBreedCorrector(map[string]string{"ANG": "Angus"}, catalog),
		Sex:       normalize.NewSexNormalizer([]string{"macho", "m"}, []string{"fêmea", "femea", "f"}),
		Resolver:  locality.NewDefaultResolver(sites, []locality.Exception{{DocumentID: "NF-13", Locality: "Site-B"}}, 0),
		Retry:     source.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}
