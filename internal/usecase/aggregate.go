package usecase

import (
	"go.uber.org/zap"

	"herd-census/internal/classify"
	"herd-census/internal/domain"
	"herd-census/internal/normalize"
)

type breedCounts struct {
	total, male, female, unclassified int
	perBracket                        map[domain.AgeBracket]int
}

type localityCounts struct {
	total, male, female, unclassified int
	breeds                            map[string]*breedCounts
}

// Aggregate folds the records into locality and breed buckets, then nets the
// outbound movements against the locality totals and sex counts. Netting never
// drives a count below zero; every floor hit is logged and returned. Records
// must carry a non-negative age and a locality, and movements a non-negative
// quantity; anything else is reported as domain.ErrInvariantViolation and no
// tally is returned.
func Aggregate(records []domain.VirtualAnimal, movements []domain.OutboundMovement, logger *zap.Logger) (domain.CensusTally, []domain.FloorHit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	localities := make(map[string]*localityCounts)
	for _, r := range records {
		if r.AgeMonths == nil {
			return domain.CensusTally{}, nil, domain.Invariantf("record %s reached the aggregator without an age", r.SourceID)
		}
		if *r.AgeMonths < 0 {
			return domain.CensusTally{}, nil, domain.Invariantf("record %s has negative age %.2f", r.SourceID, *r.AgeMonths)
		}
		if r.Locality == "" {
			return domain.CensusTally{}, nil, domain.Invariantf("record %s reached the aggregator without a locality", r.SourceID)
		}

		lc, ok := localities[r.Locality]
		if !ok {
			lc = &localityCounts{breeds: make(map[string]*breedCounts)}
			localities[r.Locality] = lc
		}
		breed := r.Breed
		if breed == "" {
			breed = normalize.NotInformed
		}
		bc, ok := lc.breeds[breed]
		if !ok {
			bc = &breedCounts{perBracket: emptyBrackets()}
			lc.breeds[breed] = bc
		}

		lc.total++
		bc.total++
		switch r.Sex {
		case domain.SexMale:
			lc.male++
			bc.male++
		case domain.SexFemale:
			lc.female++
			bc.female++
		default:
			lc.unclassified++
			bc.unclassified++
			continue
		}
		if bracket, ok := classify.Classify(*r.AgeMonths, r.Sex); ok {
			bc.perBracket[bracket]++
		}
	}

	var hits []domain.FloorHit
	for _, m := range movements {
		if m.Quantity < 0 {
			return domain.CensusTally{}, nil, domain.Invariantf("movement %s has negative quantity %d", m.SourceID, m.Quantity)
		}
		if m.Locality == "" {
			return domain.CensusTally{}, nil, domain.Invariantf("movement %s reached the aggregator without a locality", m.SourceID)
		}
		if m.Quantity == 0 {
			continue
		}

		lc := localities[m.Locality]
		var available int
		switch {
		case lc == nil:
		case m.Sex == domain.SexMale:
			available = lc.male
		case m.Sex == domain.SexFemale:
			available = lc.female
		default:
			available = lc.total
		}

		if m.Quantity > available {
			hit := domain.FloorHit{Locality: m.Locality, Sex: m.Sex, Requested: m.Quantity, Available: available}
			hits = append(hits, hit)
			logger.Warn("outbound netting floored at zero",
				zap.String("movement", m.SourceID),
				zap.String("locality", hit.Locality),
				zap.String("sex", string(hit.Sex)),
				zap.Int("requested", hit.Requested),
				zap.Int("available", hit.Available),
			)
		}
		if lc == nil {
			continue
		}

		lc.total = floorSub(lc.total, m.Quantity)
		switch m.Sex {
		case domain.SexMale:
			lc.male = floorSub(lc.male, m.Quantity)
		case domain.SexFemale:
			lc.female = floorSub(lc.female, m.Quantity)
		}
	}

	return buildTally(localities), hits, nil
}

func floorSub(n, q int) int {
	if q >= n {
		return 0
	}
	return n - q
}

func emptyBrackets() map[domain.AgeBracket]int {
	m := make(map[domain.AgeBracket]int, 10)
	for _, sex := range []domain.Sex{domain.SexFemale, domain.SexMale} {
		for _, b := range domain.BracketsFor(sex) {
			m[b] = 0
		}
	}
	return m
}

func buildTally(localities map[string]*localityCounts) domain.CensusTally {
	tally := domain.CensusTally{Localities: make(map[string]domain.LocalityTally, len(localities))}
	for name, lc := range localities {
		lt := domain.LocalityTally{
			Total:        lc.total,
			MaleCount:    lc.male,
			FemaleCount:  lc.female,
			Unclassified: lc.unclassified,
			Breeds:       make(map[string]domain.BreedTally, len(lc.breeds)),
		}
		for breed, bc := range lc.breeds {
			lt.Breeds[breed] = domain.BreedTally{
				Total:        bc.total,
				MaleCount:    bc.male,
				FemaleCount:  bc.female,
				Unclassified: bc.unclassified,
				PerBracket:   bc.perBracket,
			}
		}
		tally.Localities[name] = lt
	}
	return tally
}
