package recovery

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/internal/logger"
)

func newTestHandler(attempts int) (*RecoveryHandler, *[]time.Duration) {
	h := NewRecoveryHandler(RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    25 * time.Millisecond,
		Strategy:    BackoffExponential,
		Multiplier:  2,
	}, logger.Nop())
	var slept []time.Duration
	h.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return h, &slept
}

func TestExecuteWithRecovery_RetriesIOErrors(t *testing.T) {
	h, slept := newTestHandler(4)

	calls := 0
	err := h.ExecuteWithRecovery(context.Background(), "store", "save_run", func() error {
		calls++
		if calls < 3 {
			return stderrors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
	assert.Equal(t, 2, h.GetErrorStats().Count(errors.ErrorCategoryIO))
}

func TestExecuteWithRecovery_GivesUpAfterMaxAttempts(t *testing.T) {
	h, slept := newTestHandler(3)
	cause := stderrors.New("disk full")

	calls := 0
	err := h.ExecuteWithRecovery(context.Background(), "reporting", "write_csv", func() error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	// no wait after the final attempt
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
}

func TestExecuteWithRecovery_FatalErrorsStopImmediately(t *testing.T) {
	h, slept := newTestHandler(5)

	calls := 0
	err := h.ExecuteWithRecovery(context.Background(), "population", "advance", func() error {
		calls++
		return errors.NewEmptyPoolError("population", "advance")
	})

	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryEmptyPool))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestExecuteWithRecovery_CancelledContext(t *testing.T) {
	h, _ := newTestHandler(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.ExecuteWithRecovery(ctx, "store", "save_run", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_Strategies(t *testing.T) {
	h := NewRecoveryHandler(RetryConfig{BaseDelay: time.Second, Strategy: BackoffLinear}, logger.Nop())
	assert.Equal(t, 3*time.Second, h.delay(3))

	h = NewRecoveryHandler(RetryConfig{BaseDelay: time.Second, Strategy: BackoffFixed}, logger.Nop())
	assert.Equal(t, time.Second, h.delay(5))

	h = NewRecoveryHandler(RetryConfig{BaseDelay: time.Second, MaxDelay: 3 * time.Second}, logger.Nop())
	assert.Equal(t, time.Second, h.delay(1))
	assert.Equal(t, 2*time.Second, h.delay(2))
	assert.Equal(t, 3*time.Second, h.delay(3))
}
