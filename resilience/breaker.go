package resilience

import (
	"context"
	stderrors "errors"
	"sync"
	"time"
)

// State is the position of a Breaker.
type State int32

const (
	// Closed passes every call.
	Closed State = iota
	// Open rejects calls until the cooldown elapses.
	Open
	// Probing lets a limited number of calls test the service.
	Probing
)

var stateNames = [...]string{Closed: "closed", Open: "open", Probing: "probing"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrOpen is returned by Do while the breaker rejects calls.
var ErrOpen = stderrors.New("resilience: breaker open")

// Defaults used when BreakerConfig fields are zero.
const (
	DefaultThreshold = 5
	DefaultCooldown  = 30 * time.Second
	DefaultProbes    = 1
)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Name identifies the guarded service in transition callbacks.
	Name string `yaml:"name" mapstructure:"name"`
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int `yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown" validate:"gte=0"`
	// Probes is the number of concurrent calls admitted while probing.
	Probes int `yaml:"probes" mapstructure:"probes" validate:"gte=0"`

	// Failed decides which errors count against the service. Context
	// cancellation never counts.
	Failed func(error) bool `yaml:"-" mapstructure:"-"`
	// OnTransition observes state changes. It runs with the breaker locked
	// and must not call back into it.
	OnTransition func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.Probes <= 0 {
		c.Probes = DefaultProbes
	}
	return c
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg   BreakerConfig
	clock func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), clock: time.Now}
}

// Do runs fn unless the breaker is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	err = fn()
	b.settle(probe, err)
	return err
}

// State reports the current state, moving Open to Probing once the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expire()
	return b.state
}

// Failures is the current run of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker and clears the failure run.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures, b.inFlight = 0, 0
	b.move(Closed)
}

func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expire()
	switch b.state {
	case Open:
		return false, ErrOpen
	case Probing:
		if b.inFlight >= b.cfg.Probes {
			return false, ErrOpen
		}
		b.inFlight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) settle(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if probe && b.inFlight > 0 {
		b.inFlight--
	}
	if !b.counts(err) {
		b.failures = 0
		if b.state == Probing {
			b.move(Closed)
		}
		return
	}
	b.failures++
	if b.state == Probing || b.failures >= b.cfg.Threshold {
		b.openedAt = b.clock()
		b.move(Open)
	}
}

func (b *Breaker) counts(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	if b.cfg.Failed != nil {
		return b.cfg.Failed(err)
	}
	return true
}

// expire must hold b.mu.
func (b *Breaker) expire() {
	if b.state == Open && b.clock().Sub(b.openedAt) >= b.cfg.Cooldown {
		b.inFlight = 0
		b.move(Probing)
	}
}

// move must hold b.mu.
func (b *Breaker) move(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnTransition != nil {
		b.cfg.OnTransition(b.cfg.Name, from, to)
	}
}
