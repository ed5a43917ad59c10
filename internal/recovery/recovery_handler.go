package recovery

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ducminhle1904/transit-ga/internal/errors"
)

// RetryConfig defines retry behavior for output operations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Strategy    BackoffStrategy
	Multiplier  float64
}

// BackoffStrategy defines different backoff strategies
type BackoffStrategy string

const (
	BackoffExponential BackoffStrategy = "exponential"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffFixed       BackoffStrategy = "fixed"
)

// Logger interface for recovery handler
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// DefaultRetryConfig retries IO failures three times with exponential backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Strategy:    BackoffExponential,
		Multiplier:  2,
	}
}

// RecoveryHandler runs operations and decides, from the error category,
// whether a failure is retried, skipped or ends the run
type RecoveryHandler struct {
	errorStats *errors.ErrorStats
	cfg        RetryConfig
	logger     Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(cfg RetryConfig, logger Logger) *RecoveryHandler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &RecoveryHandler{
		errorStats: errors.NewErrorStats(50),
		cfg:        cfg,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// ExecuteWithRecovery executes fn, retrying IO errors with backoff. Fatal
// errors and skippable errors are returned immediately. Errors that are not
// categorized are treated as IO failures.
func (rh *RecoveryHandler) ExecuteWithRecovery(ctx context.Context, component, operation string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= rh.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				rh.logger.Info("Operation %s.%s succeeded after %d attempts", component, operation, attempt)
			}
			return nil
		}
		lastErr = err

		optErr := categorize(err, component, operation)
		rh.errorStats.RecordError(optErr)

		switch optErr.GetRecoveryAction() {
		case errors.RecoveryActionRetry:
			if attempt == rh.cfg.MaxAttempts {
				break
			}
			delay := rh.delay(attempt)
			rh.logger.Warning("Attempt %d of %s.%s failed: %v (retrying in %s)", attempt, component, operation, err, delay)
			if err := rh.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		case errors.RecoveryActionSkip, errors.RecoveryActionFallback:
			rh.logger.Warning("Skipping %s.%s: %v", component, operation, err)
			return err
		default:
			rh.logger.Error("FATAL ERROR in %s.%s: %v", component, operation, err)
			return err
		}
	}

	rh.logger.Error("Operation %s.%s failed after %d attempts", component, operation, rh.cfg.MaxAttempts)
	return fmt.Errorf("operation failed after %d attempts: %w", rh.cfg.MaxAttempts, lastErr)
}

// GetErrorStats returns the current error statistics
func (rh *RecoveryHandler) GetErrorStats() *errors.ErrorStats {
	return rh.errorStats
}

func (rh *RecoveryHandler) delay(attempt int) time.Duration {
	var d time.Duration
	switch rh.cfg.Strategy {
	case BackoffLinear:
		d = rh.cfg.BaseDelay * time.Duration(attempt)
	case BackoffFixed:
		d = rh.cfg.BaseDelay
	default:
		m := 1.0
		for i := 1; i < attempt; i++ {
			m *= rh.cfg.Multiplier
		}
		d = time.Duration(float64(rh.cfg.BaseDelay) * m)
	}
	if rh.cfg.MaxDelay > 0 && d > rh.cfg.MaxDelay {
		d = rh.cfg.MaxDelay
	}
	return d
}

func categorize(err error, component, operation string) *errors.OptimizerError {
	var optErr *errors.OptimizerError
	if stderrors.As(err, &optErr) {
		return optErr
	}
	return errors.NewIOError(component, operation, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
