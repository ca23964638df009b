package helper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")
var errFatal = errors.New("fatal failure")

func testRetrier(maxAttempts int) *Retrier {
	return NewRetrier(maxAttempts, time.Millisecond, 5*time.Millisecond, func(err error) bool {
		return errors.Is(err, errTransient)
	})
}

func TestRetrierDo(t *testing.T) {
	t.Run("Succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := testRetrier(3).Do(context.Background(), func() error {
			attempts++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("Retries transient errors until success", func(t *testing.T) {
		attempts := 0
		err := testRetrier(3).Do(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return errTransient
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("Gives up after attempt budget", func(t *testing.T) {
		attempts := 0
		err := testRetrier(3).Do(context.Background(), func() error {
			attempts++
			return errTransient
		})

		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, attempts)
	})

	t.Run("Non-retryable error aborts immediately", func(t *testing.T) {
		attempts := 0
		err := testRetrier(3).Do(context.Background(), func() error {
			attempts++
			return errFatal
		})

		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, attempts)
	})

	t.Run("Wrapped transient error is still retried", func(t *testing.T) {
		attempts := 0
		err := testRetrier(2).Do(context.Background(), func() error {
			attempts++
			return fmt.Errorf("call failed: %w", errTransient)
		})

		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 2, attempts)
	})

	t.Run("Cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		err := testRetrier(10).Do(ctx, func() error {
			attempts++
			cancel()
			return errTransient
		})

		assert.Error(t, err)
		assert.Less(t, attempts, 10)
	})

	t.Run("Nil predicate retries everything", func(t *testing.T) {
		retrier := NewRetrier(2, time.Millisecond, 5*time.Millisecond, nil)
		attempts := 0
		err := retrier.Do(context.Background(), func() error {
			attempts++
			return errFatal
		})

		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 2, attempts)
	})
}
