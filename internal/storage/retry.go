package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/apperrors"
)

// RetryPolicy bounds how often a conflicting transaction is re-run.
type RetryPolicy struct {
	// MaxAttempts includes the first try. Values below 1 mean 1.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between tries.
	Backoff time.Duration
}

// DefaultRetryPolicy matches the retry budget of document-store transactions.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Backoff: 20 * time.Millisecond}

// ConflictObserver is notified of each conflicting attempt. May be nil.
type ConflictObserver func()

// Retry runs fn until it succeeds, fails with an error isConflict rejects,
// or the attempts run out. Exhaustion yields an apperrors Conflict error.
func (p RetryPolicy) Retry(ctx context.Context, isConflict func(error) bool, onConflict ConflictObserver, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !isConflict(err) {
			return err
		}
		if onConflict != nil {
			onConflict()
		}
		slog.DebugContext(ctx, "transaction conflict, retrying", "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	return apperrors.Conflict(err, "transaction retries exhausted after %d attempts", attempts)
}
