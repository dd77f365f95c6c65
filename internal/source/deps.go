// Package source turns raw store rows into normalized virtual animals and
// outbound movements. Adapters never aggregate; they only clean, tag and
// expand records.
package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"herd-census/internal/domain"
	"herd-census/internal/locality"
	"herd-census/internal/normalize"
)

// AnimalLister is the record store side that lists tracked animals.
type AnimalLister interface {
	ListAnimals(ctx context.Context, filter domain.AnimalFilter) ([]domain.RawRow, error)
}

// MovementLister is the record store side that lists outbound movements.
type MovementLister interface {
	ListOutboundMovements(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawRow, error)
}

// InvoiceLister is the invoice store.
type InvoiceLister interface {
	ListInvoices(ctx context.Context, periodStart, periodEnd time.Time) ([]domain.RawInvoice, error)
}

// DefaultMaxQuantity is the largest line item or movement quantity accepted
// when Deps leaves MaxQuantity unset.
const DefaultMaxQuantity = 10000

// Deps are the normalization tables and plumbing shared by the adapters.
type Deps struct {
	Corrector *normalize.BreedCorrector
	Sex       *normalize.SexNormalizer
	Resolver  *locality.Resolver
	Retry     RetryPolicy
	// MaxQuantity caps the head count of one line item or movement. Larger
	// values are skipped as excessive_quantity.
	MaxQuantity int
	Logger      *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Corrector == nil {
		d.Corrector = normalize.NewBreedCorrector(nil, nil)
	}
	if d.Sex == nil {
		d.Sex = normalize.NewSexNormalizer([]string{"macho", "m", "male"}, []string{"fêmea", "femea", "f", "female"})
	}
	if d.Resolver == nil {
		d.Resolver = locality.NewResolver(locality.NewExplicitTag(nil))
	}
	if d.Retry.Attempts == 0 {
		d.Retry = DefaultRetryPolicy()
	}
	if d.MaxQuantity <= 0 {
		d.MaxQuantity = DefaultMaxQuantity
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// inScope reports whether a resolved locality passes the hint. Unresolved
// records always pass; the caller applies the unresolved policy.
func inScope(resolved string, hint string) bool {
	hint = strings.TrimSpace(hint)
	if resolved == "" || hint == "" || strings.EqualFold(hint, "all") {
		return true
	}
	return normalize.Fold(resolved) == normalize.Fold(hint)
}
