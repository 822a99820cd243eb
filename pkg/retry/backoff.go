package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "stopsum/pkg/errors"
)

// BackoffStrategy computes the pause before a retry
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ErrorAwareBackoff picks a delay based on the error being retried
type ErrorAwareBackoff interface {
	BackoffStrategy
	NextDelayFor(attempt int, err error) time.Duration
}

// ConstantBackoff waits the same delay after every failure. This is the
// feed exporter's default: the Graph API recovers from transient faults
// within seconds.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ExponentialBackoff grows the delay by Multiplier per attempt up to
// MaxDelay, then spreads it by ±JitterFactor
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff returns a 1s..60s doubling schedule with 10% jitter
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(max(eb.Multiplier, 1), float64(attempt-1))
	if eb.MaxDelay > 0 {
		delay = min(delay, float64(eb.MaxDelay))
	}
	if eb.JitterFactor > 0 {
		spread := delay * eb.JitterFactor
		delay += rand.Float64()*2*spread - spread
	}

	return time.Duration(max(delay, 0))
}

// PerErrorType chooses the strategy by the type of the typed API error being
// retried. Untyped errors and unlisted types use Default.
type PerErrorType struct {
	Default BackoffStrategy
	ByType  map[errs.ErrorType]BackoffStrategy
}

// For returns the strategy used for errorType
func (p *PerErrorType) For(errorType errs.ErrorType) BackoffStrategy {
	if b, ok := p.ByType[errorType]; ok && b != nil {
		return b
	}
	return p.Default
}

func (p *PerErrorType) NextDelay(attempt int) time.Duration {
	return p.Default.NextDelay(attempt)
}

func (p *PerErrorType) NextDelayFor(attempt int, err error) time.Duration {
	return p.For(errs.TypeOf(err)).NextDelay(attempt)
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
