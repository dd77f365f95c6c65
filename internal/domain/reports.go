package domain

// SkipReason is the reason code attached to a record left out of a bucket.
type SkipReason string

const (
	SkipInactive             SkipReason = "inactive"
	SkipNoAge                SkipReason = "no_age"
	SkipUnknownAgeDescriptor SkipReason = "unknown_age_descriptor"
	SkipNegativeAge          SkipReason = "negative_age"
	SkipUnresolvedLocality   SkipReason = "unresolved_locality"
	SkipOutOfPeriod          SkipReason = "out_of_period"
	SkipCancelled            SkipReason = "cancelled"
	SkipUnknownDirection     SkipReason = "unknown_direction"
	SkipInvalidQuantity      SkipReason = "invalid_quantity"
	SkipExcessiveQuantity    SkipReason = "excessive_quantity"
)

// Skips counts skipped records per reason.
type Skips map[SkipReason]int

// Add records n skips for reason.
func (s Skips) Add(reason SkipReason, n int) {
	if n <= 0 {
		return
	}
	s[reason] += n
}

// Merge adds every count of other into s.
func (s Skips) Merge(other Skips) {
	for reason, n := range other {
		s.Add(reason, n)
	}
}

// Total returns the number of skipped records.
func (s Skips) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// FloorHit records an outbound netting that would have driven a count negative.
type FloorHit struct {
	Locality  string `json:"locality"`
	Sex       Sex    `json:"sex"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Summary provides the partial-success information accounting users need next
// to the numbers.
type Summary struct {
	RunID                   string     `json:"run_id"`
	PeriodStart             string     `json:"period_start"`
	PeriodEnd               string     `json:"period_end"`
	LocalityScope           string     `json:"locality_scope"`
	DirectRecordsProcessed  int        `json:"direct_records_processed"`
	InvoicesProcessed       int        `json:"invoices_processed"`
	InvoiceRecordsProcessed int        `json:"invoice_records_processed"`
	MovementsProcessed      int        `json:"movements_processed"`
	Skipped                 Skips      `json:"skipped"`
	MalformedInvoices       int        `json:"malformed_invoices"`
	FloorHits               []FloorHit `json:"floor_hits"`
}

// CensusReport is the top-level structure handed to the bulletin formatter.
type CensusReport struct {
	Summary Summary     `json:"summary"`
	Tally   CensusTally `json:"tally"`
}
