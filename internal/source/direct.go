package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"herd-census/internal/classify"
	"herd-census/internal/domain"
	"herd-census/internal/locality"
	"herd-census/internal/normalize"
)

const sourceRecordStore = "record_store"

// DirectRecordAdapter reads individually tracked animals.
type DirectRecordAdapter struct {
	store AnimalLister
	deps  Deps
	now   func() time.Time
}

// NewDirectRecordAdapter creates an adapter over the record store.
func NewDirectRecordAdapter(store AnimalLister, deps Deps) *DirectRecordAdapter {
	return &DirectRecordAdapter{store: store, deps: deps.withDefaults(), now: time.Now}
}

// Fetch lists the animals matching filter and returns the active ones as
// virtual animals. Ages are computed at filter.AsOf (now when unset).
func (a *DirectRecordAdapter) Fetch(ctx context.Context, filter domain.AnimalFilter) ([]domain.VirtualAnimal, domain.Skips, error) {
	rows, err := Retry(ctx, a.deps.Retry, sourceRecordStore, a.deps.Logger, func(ctx context.Context) ([]domain.RawRow, error) {
		return a.store.ListAnimals(ctx, filter)
	})
	if err != nil {
		return nil, nil, err
	}

	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = a.now()
	}

	skips := domain.Skips{}
	animals := make([]domain.VirtualAnimal, 0, len(rows))
	for _, row := range rows {
		id := firstString(row, keysID...)
		log := a.deps.Logger.With(zap.String("record_id", id))

		if !isActive(row) {
			skips.Add(domain.SkipInactive, 1)
			log.Debug("record skipped", zap.String("reason", string(domain.SkipInactive)))
			continue
		}

		series := firstString(row, keysSeries...)
		if series == "" {
			series = normalize.SeriesFromCode(id)
		}

		animal := domain.VirtualAnimal{
			SourceID:       id,
			IdentitySeries: series,
			Breed:          a.deps.Corrector.Correct(series, firstString(row, keysBreed...)),
			Sex:            a.deps.Sex.Normalize(firstString(row, keysSex...)),
			SourceKind:     domain.SourceDirectRecord,
			StatusActive:   true,
		}

		months, hasMonths := directAge(row, asOf)
		if hasMonths && months < 0 {
			skips.Add(domain.SkipNegativeAge, 1)
			log.Debug("record skipped", zap.String("reason", string(domain.SkipNegativeAge)), zap.Float64("age_months", months))
			continue
		}
		if hasMonths {
			animal.AgeMonths = &months
		} else {
			animal.AgeDescriptor = firstString(row, keysDescriptor...)
		}

		res, ok := a.deps.Resolver.Resolve(locality.Subject{
			DocumentIDs: []string{id},
			LocalityTag: firstString(row, keysLocality...),
		})
		if ok {
			animal.Locality, animal.LocalityStrategy = res.Locality, res.Strategy
		}
		if !inScope(animal.Locality, filter.Locality) {
			continue
		}
		animals = append(animals, animal)
	}
	return animals, skips, nil
}

// directAge prefers the birth date and falls back to an explicit months field.
func directAge(row domain.RawRow, asOf time.Time) (float64, bool) {
	if birth, ok := firstTime(row, keysBirthDate...); ok {
		return classify.MonthsBetween(birth, asOf), true
	}
	return firstNumber(row, keysAgeMonths...)
}
