package resilience

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"time"

	"github.com/kbukum/greenscreen/errors"
)

// Backoff describes how Retry spaces its attempts. Zero fields take the
// Default values below.
type Backoff struct {
	// Attempts is the total number of calls, the first one included.
	Attempts int `yaml:"attempts" mapstructure:"attempts" validate:"gte=0"`
	// Initial is the wait after the first failure.
	Initial time.Duration `yaml:"initial" mapstructure:"initial" validate:"gte=0"`
	// Max caps every wait.
	Max time.Duration `yaml:"max" mapstructure:"max" validate:"gte=0"`
	// Factor multiplies the wait after each failure.
	Factor float64 `yaml:"factor" mapstructure:"factor" validate:"gte=0"`
	// Jitter spreads each wait by up to this fraction, from 0 to 1.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`

	// Retryable decides whether an error deserves another attempt.
	Retryable func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration) `yaml:"-" mapstructure:"-"`
}

const (
	DefaultAttempts = 3
	DefaultInitial  = 100 * time.Millisecond
	DefaultMax      = 2 * time.Second
	DefaultFactor   = 2.0
)

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = DefaultAttempts
	}
	if b.Initial <= 0 {
		b.Initial = DefaultInitial
	}
	if b.Max <= 0 {
		b.Max = DefaultMax
	}
	if b.Factor < 1 {
		b.Factor = DefaultFactor
	}
	if b.Retryable == nil {
		b.Retryable = Transient
	}
	return b
}

// Delay is the wait after the n-th failed attempt, counting from 1,
// before jitter.
func (b Backoff) Delay(n int) time.Duration {
	b = b.withDefaults()
	wait := float64(b.Initial)
	for i := 1; i < n && wait < float64(b.Max); i++ {
		wait *= b.Factor
	}
	if wait > float64(b.Max) {
		return b.Max
	}
	return time.Duration(wait)
}

func (b Backoff) spread(d time.Duration) time.Duration {
	if b.Jitter <= 0 || d <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * b.Jitter * float64(d)
	return time.Duration(float64(d) + delta)
}

// Transient reports whether err may clear up on its own: anything except
// context errors and application errors marked permanent.
func Transient(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

// Retry calls fn until it succeeds, returns a permanent error, runs out of
// attempts or ctx ends. It returns the last error from fn, or the context
// error when ctx ends during a wait.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	b = b.withDefaults()
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= b.Attempts || !b.Retryable(err) {
			return err
		}
		wait := b.spread(b.Delay(attempt))
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
