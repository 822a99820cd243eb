package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stopsum/pkg/config"
	errs "stopsum/pkg/errors"
	"stopsum/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Context context.Context
	Logger  logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// FromConfig builds a retry configuration from the retry section of the
// application config. A multiplier of 1 without jitter gives a constant
// schedule. Throttled requests wait at least MaxDelay and back off further.
func FromConfig(ctx context.Context, rc config.RetryConfig, log logger.Logger) *Config {
	var base BackoffStrategy = &ConstantBackoff{Delay: rc.InitialDelay}
	if rc.Multiplier > 1 || rc.JitterFactor > 0 {
		base = &ExponentialBackoff{
			BaseDelay:    rc.InitialDelay,
			MaxDelay:     rc.MaxDelay,
			Multiplier:   rc.Multiplier,
			JitterFactor: rc.JitterFactor,
		}
	}
	slowest := max(rc.InitialDelay, rc.MaxDelay)

	return &Config{
		MaxAttempts: rc.MaxAttempts,
		Backoff: &PerErrorType{
			Default: base,
			ByType: map[errs.ErrorType]BackoffStrategy{
				errs.ErrorTypeRateLimit: &ExponentialBackoff{
					BaseDelay:    slowest,
					MaxDelay:     5 * slowest,
					Multiplier:   1.5,
					JitterFactor: rc.JitterFactor,
				},
			},
		},
		RetryIf: DefaultRetryIf,
		Context: ctx,
		Logger:  log,
	}
}

// DefaultRetryIf retries typed errors whose type is retryable, never retries
// context errors, and retries anything else
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		// no point sleeping when the next iteration gives up
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			continue
		}

		delay := nextDelay(backoff, attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)
	return result, err
}

func nextDelay(b BackoffStrategy, attempt int, err error) time.Duration {
	if eb, ok := b.(ErrorAwareBackoff); ok {
		return eb.NextDelayFor(attempt, err)
	}
	return b.NextDelay(attempt)
}
