package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"herd-census/internal/domain"
	"herd-census/internal/locality"
)

const sourceInvoiceStore = "invoice_store"

// InvoiceBatch is what the invoice adapter extracts from one period.
type InvoiceBatch struct {
	Animals   []domain.VirtualAnimal
	Movements []domain.OutboundMovement
	Skips     domain.Skips
	Invoices  int
	Malformed int
}

// InvoiceLineItemAdapter expands invoice line items into virtual animals
// (inbound invoices) or outbound movements (outbound invoices).
type InvoiceLineItemAdapter struct {
	store InvoiceLister
	deps  Deps
}

// NewInvoiceLineItemAdapter creates an adapter over the invoice store.
func NewInvoiceLineItemAdapter(store InvoiceLister, deps Deps) *InvoiceLineItemAdapter {
	return &InvoiceLineItemAdapter{store: store, deps: deps.withDefaults()}
}

// Fetch reads the invoices issued within [periodStart, periodEnd]. With a
// non-empty localityHint, invoices resolved to another locality are left out.
func (a *InvoiceLineItemAdapter) Fetch(ctx context.Context, periodStart, periodEnd time.Time, localityHint string) (InvoiceBatch, error) {
	invoices, err := Retry(ctx, a.deps.Retry, sourceInvoiceStore, a.deps.Logger, func(ctx context.Context) ([]domain.RawInvoice, error) {
		return a.store.ListInvoices(ctx, periodStart, periodEnd)
	})
	if err != nil {
		return InvoiceBatch{}, err
	}

	batch := InvoiceBatch{Skips: domain.Skips{}}
	for _, inv := range invoices {
		a.collect(&batch, inv, periodStart, periodEnd, localityHint)
	}
	return batch, nil
}

func (a *InvoiceLineItemAdapter) collect(batch *InvoiceBatch, inv domain.RawInvoice, periodStart, periodEnd time.Time, localityHint string) {
	if inv.Undecodable {
		batch.Malformed++
		a.deps.Logger.Warn("invoice document unreadable", zap.String("origin", inv.Origin))
		return
	}
	h := inv.Header
	id := firstString(h, keysInvoiceID...)
	number := firstString(h, keysInvoiceNumber...)
	ref := number
	if ref == "" {
		ref = id
	}
	if ref == "" {
		ref = inv.Origin
	}
	log := a.deps.Logger.With(zap.String("invoice", ref))

	skip := func(reason domain.SkipReason) {
		batch.Skips.Add(reason, 1)
		log.Debug("invoice skipped", zap.String("reason", string(reason)))
	}

	issued, ok := firstTime(h, keysIssuedAt...)
	if !ok || !withinPeriod(issued, periodStart, periodEnd) {
		skip(domain.SkipOutOfPeriod)
		return
	}
	if isCancelled(h) {
		skip(domain.SkipCancelled)
		return
	}
	dir := direction(h)
	if dir == domain.DirectionUnknown {
		skip(domain.SkipUnknownDirection)
		return
	}

	var res locality.Resolution
	if r, ok := a.deps.Resolver.Resolve(locality.Subject{
		DocumentIDs:      nonEmpty(number, id),
		LocalityTag:      firstString(h, keysLocality...),
		TaxIDs:           allStrings(h, keysTaxID...),
		CounterpartyName: firstString(h, keysCounterparty...),
	}); ok {
		res = r
	}
	if !inScope(res.Locality, localityHint) {
		return
	}

	items, ok := LineItems(inv)
	if !ok {
		batch.Malformed++
		log.Warn("invoice line items unreadable in both representations")
		return
	}
	batch.Invoices++

	for i, item := range items {
		itemRef := fmt.Sprintf("%s#%d", ref, i+1)
		qty, ok := lineQuantity(item, a.deps.MaxQuantity)
		if !ok {
			batch.Skips.Add(domain.SkipExcessiveQuantity, 1)
			log.Warn("line item skipped", zap.String("item", itemRef), zap.String("reason", string(domain.SkipExcessiveQuantity)), zap.Int("max_quantity", a.deps.MaxQuantity))
			continue
		}
		sex := a.deps.Sex.Normalize(firstString(item, keysSex...))

		if dir == domain.DirectionOutbound {
			batch.Movements = append(batch.Movements, domain.OutboundMovement{
				SourceID: itemRef,
				Locality: res.Locality,
				Sex:      sex,
				Quantity: qty,
			})
			continue
		}

		proto := domain.VirtualAnimal{
			Breed:            a.deps.Corrector.Correct("", firstString(item, keysBreed...)),
			Sex:              sex,
			Locality:         res.Locality,
			LocalityStrategy: res.Strategy,
			SourceKind:       domain.SourceInvoiceLineItem,
			StatusActive:     true,
		}
		if months, ok := firstNumber(item, keysAgeMonths...); ok {
			if months < 0 {
				batch.Skips.Add(domain.SkipNegativeAge, qty)
				log.Debug("line item skipped", zap.String("item", itemRef), zap.String("reason", string(domain.SkipNegativeAge)))
				continue
			}
			proto.AgeMonths = &months
		} else {
			proto.AgeDescriptor = firstString(item, keysDescriptor...)
		}

		for n := 0; n < qty; n++ {
			animal := proto
			animal.SourceID = fmt.Sprintf("%s.%d", itemRef, n+1)
			if proto.AgeMonths != nil {
				m := *proto.AgeMonths
				animal.AgeMonths = &m
			}
			batch.Animals = append(batch.Animals, animal)
		}
	}
}

// LineItems picks the representation holding more items. It returns false
// when neither representation can be read.
func LineItems(inv domain.RawInvoice) ([]domain.RawRow, bool) {
	inline, inlineOK := parseInline(inv.InlineItems)
	rows := inv.ItemRows
	if !inlineOK {
		if len(rows) == 0 {
			return nil, false
		}
		return rows, true
	}
	if len(rows) > len(inline) {
		return rows, true
	}
	return inline, true
}

// parseInline reads a JSON array of objects, also when the array was stored as
// a JSON string. Empty input is an empty, valid list.
func parseInline(raw []byte) ([]domain.RawRow, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		return parseInline([]byte(inner))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}
	rows := make([]domain.RawRow, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		rows = append(rows, domain.RawRow(it))
	}
	return rows, true
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
