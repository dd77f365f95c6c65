package usecase

import (
	"context"
	"time"

	"herd-census/internal/domain"
)

// RecordStore lists individually tracked animals and outbound movements.
// The usecase layer depends on this interface, not on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=interface.go -package=mock_usecase
type RecordStore interface {
	ListAnimals(ctx context.Context, filter domain.AnimalFilter) ([]domain.RawRow, error)
	ListOutboundMovements(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawRow, error)
}

// InvoiceStore lists invoice documents issued within a period.
type InvoiceStore interface {
	ListInvoices(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawInvoice, error)
}

// MetricsRecorder receives the outcome of every census run.
type MetricsRecorder interface {
	ObserveRun(result string, elapsed time.Duration)
	AddSkips(skips domain.Skips)
	AddFloorHits(n int)
}
