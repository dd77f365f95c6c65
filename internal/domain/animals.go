package domain

import "time"

// Sex is the normalized sex of an animal.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// SourceKind records where a virtual animal came from.
type SourceKind string

const (
	SourceDirectRecord    SourceKind = "direct_record"
	SourceInvoiceLineItem SourceKind = "invoice_line_item"
)

// Direction tells whether an invoice brings animals in or takes them out.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// RawRow is a record exactly as a store delivers it. The same logical field may
// appear under several keys (camelCase, snake_case, Portuguese labels).
type RawRow map[string]any

// RawInvoice is an invoice document with its line items in one or both of the
// stored representations.
type RawInvoice struct {
	Header RawRow
	// InlineItems is the embedded list as stored: a JSON array, or a JSON string
	// holding one.
	InlineItems []byte
	// ItemRows is the item-per-row table representation.
	ItemRows []RawRow
	// Origin names the file or object the invoice was read from, if any.
	Origin string
	// Undecodable marks a document the store could not decode at all. Only
	// Origin is set.
	Undecodable bool
}

// AnimalFilter narrows ListAnimals on the record store.
type AnimalFilter struct {
	Locality   string
	ActiveOnly bool
	// AsOf is the reference date for ages, normally the period end.
	AsOf time.Time
}

// VirtualAnimal is one countable animal, derived either from an individually
// tracked record or from exploding an invoice line item. It is never persisted.
type VirtualAnimal struct {
	SourceID         string     `json:"source_id"`
	IdentitySeries   string     `json:"identity_series,omitempty"`
	Breed            string     `json:"breed"`
	Sex              Sex        `json:"sex"`
	AgeMonths        *float64   `json:"age_months,omitempty"`
	AgeDescriptor    string     `json:"age_descriptor,omitempty"`
	Locality         string     `json:"locality,omitempty"`
	LocalityStrategy string     `json:"locality_strategy,omitempty"`
	SourceKind       SourceKind `json:"source_kind"`
	StatusActive     bool       `json:"status_active"`
}

// HasAge reports whether the age in months is known.
func (a VirtualAnimal) HasAge() bool {
	return a.AgeMonths != nil
}

// OutboundMovement is a quantity of animals leaving a locality within the period.
// It only nets totals down and never removes an individual VirtualAnimal.
type OutboundMovement struct {
	SourceID string `json:"source_id"`
	Locality string `json:"locality"`
	Sex      Sex    `json:"sex"`
	Quantity int    `json:"quantity"`
}
