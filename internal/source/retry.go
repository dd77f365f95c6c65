package source

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"herd-census/internal/domain"
)

// RetryPolicy bounds the attempts made against a store.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy makes three attempts with exponential backoff from 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		return p.MaxDelay
	}
	return d
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error that retrying cannot fix, such as a corrupt export.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, the attempts run out, the error is
// permanent or ctx is done. Exhaustion is reported as a *domain.SourceError; a
// permanent error is returned unwrapped after one attempt.
func Retry[T any](ctx context.Context, policy RetryPolicy, source string, logger *zap.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		made++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			logger.Error("store call failed permanently", zap.String("source", source), zap.Error(perm.err))
			return zero, perm.err
		}
		if errors.Is(err, context.Canceled) {
			break
		}
		logger.Warn("store call failed",
			zap.String("source", source),
			zap.Int("attempt", made),
			zap.Error(err),
		)
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	logger.Error("store unavailable", zap.String("source", source), zap.Int("attempts", made), zap.Error(lastErr))
	return zero, &domain.SourceError{Source: source, Attempts: made, Err: lastErr}
}
