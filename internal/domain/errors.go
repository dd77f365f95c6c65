package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable means a record or invoice store could not be
	// reached after bounded retries. Callers decide whether to retry the run.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrInvariantViolation signals a bug upstream of the aggregator.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidPeriod is returned for a period whose start is after its end.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidTables is returned when reference tables fail validation.
	ErrInvalidTables = errors.New("invalid reference tables")
)

// SourceError wraps the last error of a store call that exhausted its retries.
type SourceError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCollaboratorUnavailable) hold for every SourceError.
func (e *SourceError) Is(target error) bool {
	return target == ErrCollaboratorUnavailable
}

// Invariantf builds an error wrapping ErrInvariantViolation.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
