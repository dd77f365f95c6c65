package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"herd-census/internal/domain"
	"herd-census/internal/locality"
)

// MovementAdapter reads outbound movements kept by the record store.
type MovementAdapter struct {
	store MovementLister
	deps  Deps
}

// NewMovementAdapter creates an adapter over the record store movements.
func NewMovementAdapter(store MovementLister, deps Deps) *MovementAdapter {
	return &MovementAdapter{store: store, deps: deps.withDefaults()}
}

// Fetch returns the movements of the period. Rows with a non-positive quantity
// are skipped rather than clamped: a movement must state how many animals left.
func (a *MovementAdapter) Fetch(ctx context.Context, periodStart, periodEnd time.Time, localityHint string) ([]domain.OutboundMovement, domain.Skips, error) {
	rows, err := Retry(ctx, a.deps.Retry, sourceRecordStore, a.deps.Logger, func(ctx context.Context) ([]domain.RawRow, error) {
		return a.store.ListOutboundMovements(ctx, periodStart, periodEnd)
	})
	if err != nil {
		return nil, nil, err
	}

	skips := domain.Skips{}
	out := make([]domain.OutboundMovement, 0, len(rows))
	for _, row := range rows {
		id := firstString(row, keysID...)
		log := a.deps.Logger.With(zap.String("movement_id", id))

		if when, ok := firstTime(row, keysDate...); ok && !withinPeriod(when, periodStart, periodEnd) {
			skips.Add(domain.SkipOutOfPeriod, 1)
			log.Debug("movement skipped", zap.String("reason", string(domain.SkipOutOfPeriod)))
			continue
		}

		d, _ := firstDecimal(row, keysQuantity...)
		qty, within := boundedCount(d, a.deps.MaxQuantity)
		reason := domain.SkipReason("")
		switch {
		case !within:
			reason = domain.SkipExcessiveQuantity
		case qty < 1:
			reason = domain.SkipInvalidQuantity
		}
		if reason != "" {
			skips.Add(reason, 1)
			log.Debug("movement skipped", zap.String("reason", string(reason)))
			continue
		}

		m := domain.OutboundMovement{
			SourceID: id,
			Sex:      a.deps.Sex.Normalize(firstString(row, keysSex...)),
			Quantity: qty,
		}
		if res, ok := a.deps.Resolver.Resolve(locality.Subject{
			DocumentIDs:      nonEmpty(id),
			LocalityTag:      firstString(row, keysLocality...),
			TaxIDs:           allStrings(row, keysTaxID...),
			CounterpartyName: firstString(row, keysCounterparty...),
		}); ok {
			m.Locality = res.Locality
		}
		if !inScope(m.Locality, localityHint) {
			continue
		}
		out = append(out, m)
	}
	return out, skips, nil
}
