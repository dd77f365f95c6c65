package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"herd-census/internal/domain"
	"herd-census/internal/normalize"
	"herd-census/internal/source"
)

// UnresolvedPolicy decides what happens to records whose locality could not be
// resolved.
type UnresolvedPolicy string

const (
	// PolicyDrop skips unresolved records.
	PolicyDrop UnresolvedPolicy = "drop"
	// PolicyGlobal counts unresolved records under domain.UnresolvedLocality
	// when the census covers every locality.
	PolicyGlobal UnresolvedPolicy = "global"
)

// ParseUnresolvedPolicy accepts "drop", "global" or "" (drop).
func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch UnresolvedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyGlobal:
		return PolicyGlobal, nil
	}
	return "", fmt.Errorf("unknown unresolved locality policy %q", s)
}

const (
	runSuccess = "success"
	runError   = "error"
)

// Engine carries the immutable tables and plumbing a census run needs.
type Engine struct {
	Sources     source.Deps
	Descriptors *normalize.AgeDescriptors
	Unresolved  UnresolvedPolicy
	Metrics     MetricsRecorder
	Logger      *zap.Logger
}

// CensusUseCase computes herd censuses from the record and invoice stores.
type CensusUseCase struct {
	direct    *source.DirectRecordAdapter
	invoices  *source.InvoiceLineItemAdapter
	movements *source.MovementAdapter

	descriptors *normalize.AgeDescriptors
	unresolved  UnresolvedPolicy
	metrics     MetricsRecorder
	logger      *zap.Logger
}

// NewCensusUseCase creates a new instance of the usecase.
func NewCensusUseCase(records RecordStore, invoices InvoiceStore, engine Engine) *CensusUseCase {
	logger := engine.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := engine.Sources
	if deps.Logger == nil {
		deps.Logger = logger
	}
	descriptors := engine.Descriptors
	if descriptors == nil {
		descriptors, _ = normalize.NewAgeDescriptors(nil)
	}
	policy := engine.Unresolved
	if policy == "" {
		policy = PolicyDrop
	}
	return &CensusUseCase{
		direct:      source.NewDirectRecordAdapter(records, deps),
		invoices:    source.NewInvoiceLineItemAdapter(invoices, deps),
		movements:   source.NewMovementAdapter(records, deps),
		descriptors: descriptors,
		unresolved:  policy,
		metrics:     engine.Metrics,
		logger:      logger,
	}
}

// ComputeCensus builds the census of [periodStart, periodEnd] for one locality,
// or for every locality when localityScope is empty or "all". A store that
// stays unreachable fails the whole call with domain.ErrCollaboratorUnavailable;
// no partial tally is ever returned.
func (uc *CensusUseCase) ComputeCensus(ctx context.Context, periodStart, periodEnd time.Time, localityScope string) (*domain.CensusReport, error) {
	started := time.Now()
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: start %s is after end %s", domain.ErrInvalidPeriod,
			periodStart.Format(time.DateOnly), periodEnd.Format(time.DateOnly))
	}

	runID := uuid.NewString()
	scope := strings.TrimSpace(localityScope)
	allLocalities := scope == "" || strings.EqualFold(scope, "all")
	hint := scope
	if allLocalities {
		hint = ""
	}
	log := uc.logger.With(zap.String("run_id", runID), zap.String("scope", scope))

	// Step 1: fetch every source concurrently
	var (
		direct      []domain.VirtualAnimal
		directSkips domain.Skips
		batch       source.InvoiceBatch
		stored      []domain.OutboundMovement
		storedSkips domain.Skips
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		direct, directSkips, err = uc.direct.Fetch(gctx, domain.AnimalFilter{Locality: hint, ActiveOnly: true, AsOf: periodEnd})
		if err != nil {
			return fmt.Errorf("could not fetch direct records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		batch, err = uc.invoices.Fetch(gctx, periodStart, periodEnd, hint)
		if err != nil {
			return fmt.Errorf("could not fetch invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stored, storedSkips, err = uc.movements.Fetch(gctx, periodStart, periodEnd, hint)
		if err != nil {
			return fmt.Errorf("could not fetch outbound movements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("census sources unavailable", zap.Error(err))
		uc.observe(runError, started)
		return nil, err
	}

	skips := domain.Skips{}
	skips.Merge(directSkips)
	skips.Merge(batch.Skips)
	skips.Merge(storedSkips)

	// Step 2: age inference and locality policy
	records := make([]domain.VirtualAnimal, 0, len(direct)+len(batch.Animals))
	for _, a := range append(append([]domain.VirtualAnimal(nil), direct...), batch.Animals...) {
		if a.AgeMonths == nil {
			months, reason, ok := uc.inferAge(a.AgeDescriptor)
			if !ok {
				skips.Add(reason, 1)
				log.Debug("record skipped", zap.String("record_id", a.SourceID), zap.String("reason", string(reason)))
				continue
			}
			a.AgeMonths = &months
		}
		if a.Locality == "" {
			if !uc.countUnresolved(allLocalities) {
				skips.Add(domain.SkipUnresolvedLocality, 1)
				log.Debug("record skipped", zap.String("record_id", a.SourceID), zap.String("reason", string(domain.SkipUnresolvedLocality)))
				continue
			}
			a.Locality = domain.UnresolvedLocality
		}
		records = append(records, a)
	}

	movements := make([]domain.OutboundMovement, 0, len(batch.Movements)+len(stored))
	for _, m := range append(append([]domain.OutboundMovement(nil), batch.Movements...), stored...) {
		if m.Locality == "" {
			if !uc.countUnresolved(allLocalities) {
				skips.Add(domain.SkipUnresolvedLocality, 1)
				log.Debug("movement skipped", zap.String("movement", m.SourceID), zap.String("reason", string(domain.SkipUnresolvedLocality)))
				continue
			}
			m.Locality = domain.UnresolvedLocality
		}
		movements = append(movements, m)
	}

	// Step 3: aggregation and netting
	tally, hits, err := Aggregate(records, movements, log)
	if err != nil {
		log.Error("census aggregation failed", zap.Error(err))
		uc.observe(runError, started)
		return nil, fmt.Errorf("could not aggregate census: %w", err)
	}
	if hits == nil {
		hits = make([]domain.FloorHit, 0)
	}

	report := &domain.CensusReport{
		Summary: domain.Summary{
			RunID:                   runID,
			PeriodStart:             periodStart.Format(time.DateOnly),
			PeriodEnd:               periodEnd.Format(time.DateOnly),
			LocalityScope:           scopeLabel(scope, allLocalities),
			DirectRecordsProcessed:  len(direct),
			InvoicesProcessed:       batch.Invoices,
			InvoiceRecordsProcessed: len(batch.Animals),
			MovementsProcessed:      len(movements),
			Skipped:                 skips,
			MalformedInvoices:       batch.Malformed,
			FloorHits:               hits,
		},
		Tally: tally,
	}

	if uc.metrics != nil {
		uc.metrics.AddSkips(skips)
		uc.metrics.AddFloorHits(len(hits))
	}
	uc.observe(runSuccess, started)
	log.Info("census computed",
		zap.Int("total", tally.Total()),
		zap.Int("skipped", skips.Total()),
		zap.Int("malformed_invoices", batch.Malformed),
		zap.Int("floor_hits", len(hits)),
	)
	return report, nil
}

func (uc *CensusUseCase) inferAge(descriptor string) (float64, domain.SkipReason, bool) {
	if strings.TrimSpace(descriptor) == "" {
		return 0, domain.SkipNoAge, false
	}
	months, ok := uc.descriptors.Months(descriptor)
	if !ok {
		return 0, domain.SkipUnknownAgeDescriptor, false
	}
	return months, "", true
}

func (uc *CensusUseCase) countUnresolved(allLocalities bool) bool {
	return uc.unresolved == PolicyGlobal && allLocalities
}

func (uc *CensusUseCase) observe(result string, started time.Time) {
	if uc.metrics != nil {
		uc.metrics.ObserveRun(result, time.Since(started))
	}
}

func scopeLabel(scope string, all bool) string {
	if all {
		return "all"
	}
	return scope
}
