package helper

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrier retries an operation with exponential backoff. Errors the
// retryable predicate rejects abort immediately.
type Retrier struct {
	maxAttempts uint64
	initial     time.Duration
	max         time.Duration
	retryable   func(error) bool
}

// NewRetrier creates a retry policy. maxAttempts counts the first try,
// so maxAttempts 3 means at most two retries. A nil retryable predicate
// retries every error.
func NewRetrier(maxAttempts int, initial time.Duration, max time.Duration, retryable func(error) bool) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		maxAttempts: uint64(maxAttempts),
		initial:     initial,
		max:         max,
		retryable:   retryable,
	}
}

// Do runs the operation until it succeeds, a non-retryable error
// occurs, the attempt budget is spent or the context is cancelled.
func (r *Retrier) Do(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxInterval = r.max

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if r.retryable != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxAttempts-1), ctx))
}
