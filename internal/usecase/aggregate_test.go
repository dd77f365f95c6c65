package usecase_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"herd-census/internal/domain"
	"herd-census/internal/usecase"
)

func age(m float64) *float64 { return &m }

func animal(id, loc, breed string, sex domain.Sex, months float64) domain.VirtualAnimal {
	return domain.VirtualAnimal{SourceID: id, Locality: loc, Breed: breed, Sex: sex, AgeMonths: age(months), StatusActive: true}
}

func TestAggregate(t *testing.T) {
	records := []domain.VirtualAnimal{
		animal("1", "Site-A", "Nelore", domain.SexFemale, 5),
		animal("2", "Site-A", "Nelore", domain.SexFemale, 7),
		animal("3", "Site-A", "Nelore", domain.SexMale, 20),
		animal("4", "Site-A", "Nelore", domain.SexUnknown, 3),
		animal("5", "Site-A", "Angus", domain.SexMale, 30),
		animal("6", "Site-B", "", domain.SexFemale, 24.5),
	}

	tally, hits, err := usecase.Aggregate(records, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	nelore, ok := tally.Bucket("Site-A", "Nelore")
	require.True(t, ok)
	assert.Equal(t, 4, nelore.Total)
	assert.Equal(t, 2, nelore.FemaleCount)
	assert.Equal(t, 1, nelore.MaleCount)
	assert.Equal(t, 1, nelore.Unclassified)
	assert.Equal(t, 2, nelore.PerBracket[domain.BracketFemale0To7])
	assert.Equal(t, 1, nelore.PerBracket[domain.BracketMale18To22])
	assert.Len(t, nelore.PerBracket, 10)

	siteA, ok := tally.Locality("Site-A")
	require.True(t, ok)
	assert.Equal(t, 5, siteA.Total)
	assert.Equal(t, 2, siteA.MaleCount)

	notInformed, ok := tally.Bucket("Site-B", "Not informed")
	require.True(t, ok)
	assert.Equal(t, 1, notInformed.PerBracket[domain.BracketFemaleOver24])

	assert.Equal(t, []string{"Site-A", "Site-B"}, tally.LocalityNames())
	assert.Equal(t, 6, tally.Total())
}

func TestAggregate_Netting(t *testing.T) {
	records := []domain.VirtualAnimal{
		animal("1", "Site-A", "Nelore", domain.SexFemale, 5),
		animal("2", "Site-A", "Nelore", domain.SexFemale, 5),
		animal("3", "Site-A", "Nelore", domain.SexFemale, 5),
		animal("4", "Site-B", "Nelore", domain.SexMale, 10),
		animal("5", "Site-B", "Nelore", domain.SexMale, 10),
		animal("6", "Site-B", "Nelore", domain.SexFemale, 10),
	}

	tests := []struct {
		name       string
		movements  []domain.OutboundMovement
		locality   string
		wantTotal  int
		wantMale   int
		wantFemale int
		wantHits   []domain.FloorHit
	}{
		{
			name:       "floor at zero",
			movements:  []domain.OutboundMovement{{SourceID: "M1", Locality: "Site-A", Sex: domain.SexFemale, Quantity: 10}},
			locality:   "Site-A",
			wantTotal:  0,
			wantFemale: 0,
			wantHits:   []domain.FloorHit{{Locality: "Site-A", Sex: domain.SexFemale, Requested: 10, Available: 3}},
		},
		{
			name:       "partial netting",
			movements:  []domain.OutboundMovement{{SourceID: "M1", Locality: "Site-B", Sex: domain.SexMale, Quantity: 1}},
			locality:   "Site-B",
			wantTotal:  2,
			wantMale:   1,
			wantFemale: 1,
		},
		{
			name:       "sex count floors while total does not",
			movements:  []domain.OutboundMovement{{SourceID: "M1", Locality: "Site-B", Sex: domain.SexFemale, Quantity: 2}},
			locality:   "Site-B",
			wantTotal:  1,
			wantMale:   2,
			wantFemale: 0,
			wantHits:   []domain.FloorHit{{Locality: "Site-B", Sex: domain.SexFemale, Requested: 2, Available: 1}},
		},
		{
			name:       "unknown sex nets the total only",
			movements:  []domain.OutboundMovement{{SourceID: "M1", Locality: "Site-B", Sex: domain.SexUnknown, Quantity: 2}},
			locality:   "Site-B",
			wantTotal:  1,
			wantMale:   2,
			wantFemale: 1,
		},
		{
			name:       "zero quantity is ignored",
			movements:  []domain.OutboundMovement{{SourceID: "M1", Locality: "Site-A", Sex: domain.SexFemale, Quantity: 0}},
			locality:   "Site-A",
			wantTotal:  3,
			wantFemale: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)

			tally, hits, err := usecase.Aggregate(records, tt.movements, zap.New(core))
			require.NoError(t, err)

			lt, ok := tally.Locality(tt.locality)
			require.True(t, ok)
			assert.Equal(t, tt.wantTotal, lt.Total)
			assert.Equal(t, tt.wantMale, lt.MaleCount)
			assert.Equal(t, tt.wantFemale, lt.FemaleCount)
			assert.Equal(t, tt.wantHits, hits)
			assert.Equal(t, len(tt.wantHits), logs.FilterMessage("outbound netting floored at zero").Len())

			bucket, _ := tally.Bucket(tt.locality, "Nelore")
			assert.Equal(t, 3, bucket.Total, "breed buckets are never netted")
		})
	}
}

func TestAggregate_MovementForUnknownLocality(t *testing.T) {
	tally, hits, err := usecase.Aggregate(
		[]domain.VirtualAnimal{animal("1", "Site-A", "Nelore", domain.SexMale, 5)},
		[]domain.OutboundMovement{{SourceID: "M1", Locality: "Site-Z", Sex: domain.SexMale, Quantity: 4}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []domain.FloorHit{{Locality: "Site-Z", Sex: domain.SexMale, Requested: 4, Available: 0}}, hits)
	_, ok := tally.Locality("Site-Z")
	assert.False(t, ok)
}

func TestAggregate_InvariantViolations(t *testing.T) {
	valid := animal("ok", "Site-A", "Nelore", domain.SexFemale, 5)
	noAge := valid
	noAge.AgeMonths = nil
	negative := valid
	negative.AgeMonths = age(-1)
	noLocality := valid
	noLocality.Locality = ""

	tests := []struct {
		name      string
		records   []domain.VirtualAnimal
		movements []domain.OutboundMovement
	}{
		{name: "missing age", records: []domain.VirtualAnimal{valid, noAge}},
		{name: "negative age", records: []domain.VirtualAnimal{negative}},
		{name: "missing locality", records: []domain.VirtualAnimal{noLocality}},
		{name: "negative movement quantity", records: []domain.VirtualAnimal{valid}, movements: []domain.OutboundMovement{{SourceID: "M", Locality: "Site-A", Sex: domain.SexFemale, Quantity: -1}}},
		{name: "movement without locality", records: []domain.VirtualAnimal{valid}, movements: []domain.OutboundMovement{{SourceID: "M", Sex: domain.SexFemale, Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally, hits, err := usecase.Aggregate(tt.records, tt.movements, nil)
			assert.ErrorIs(t, err, domain.ErrInvariantViolation)
			assert.Nil(t, tally.Localities)
			assert.Nil(t, hits)
		})
	}
}

func TestAggregate_ConservationAndNonNegativity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sexes := []domain.Sex{domain.SexMale, domain.SexFemale, domain.SexUnknown}
	localities := []string{"Site-A", "Site-B", "Site-C"}
	breeds := []string{"Nelore", "Angus", "Gir"}

	for round := 0; round < 50; round++ {
		var records []domain.VirtualAnimal
		for i, n := 0, rng.Intn(200); i < n; i++ {
			records = append(records, animal("r", localities[rng.Intn(3)], breeds[rng.Intn(3)], sexes[rng.Intn(3)], rng.Float64()*40))
		}

		before, _, err := usecase.Aggregate(records, nil, nil)
		require.NoError(t, err)
		for _, lt := range before.Localities {
			assert.Equal(t, lt.Total, lt.MaleCount+lt.FemaleCount+lt.Unclassified)
			for _, bt := range lt.Breeds {
				assert.Equal(t, bt.Total, bt.MaleCount+bt.FemaleCount+bt.Unclassified)
				classified := 0
				for _, n := range bt.PerBracket {
					classified += n
				}
				assert.Equal(t, bt.MaleCount+bt.FemaleCount, classified)
			}
		}

		var movements []domain.OutboundMovement
		for i, n := 0, rng.Intn(20); i < n; i++ {
			movements = append(movements, domain.OutboundMovement{
				SourceID: "m",
				Locality: localities[rng.Intn(3)],
				Sex:      sexes[rng.Intn(3)],
				Quantity: rng.Intn(100),
			})
		}
		after, _, err := usecase.Aggregate(records, movements, nil)
		require.NoError(t, err)
		for _, lt := range after.Localities {
			assert.GreaterOrEqual(t, lt.Total, 0)
			assert.GreaterOrEqual(t, lt.MaleCount, 0)
			assert.GreaterOrEqual(t, lt.FemaleCount, 0)
			for _, bt := range lt.Breeds {
				for _, n := range bt.PerBracket {
					assert.GreaterOrEqual(t, n, 0)
				}
			}
		}
	}
}
