package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
)

// Default per-component budgets.
const (
	DefaultStopTimeout   = 10 * time.Second
	DefaultHealthTimeout = 2 * time.Second
)

type slot struct {
	c       Component
	running bool
}

// Registry starts components in registration order and stops them in
// reverse, so register a component after everything it depends on.
type Registry struct {
	log           *logger.Logger
	stopTimeout   time.Duration
	healthTimeout time.Duration

	mu    sync.Mutex
	slots []*slot
	names map[string]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the lifecycle logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l.WithComponent("lifecycle")
		}
	}
}

// WithStopTimeout bounds each Stop call.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.stopTimeout = d
		}
	}
}

// WithHealthTimeout bounds each Health call made by HealthAll.
func WithHealthTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.healthTimeout = d
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		log:           logger.WithComponent("lifecycle"),
		stopTimeout:   DefaultStopTimeout,
		healthTimeout: DefaultHealthTimeout,
		names:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if _, dup := r.names[name]; dup {
		return errors.InvalidConfig("component", fmt.Sprintf("%q registered twice", name))
	}
	r.names[name] = struct{}{}
	r.slots = append(r.slots, &slot{c: c})
	return nil
}

// StartAll starts every component that is not running. When one fails,
// the components this call started are stopped again in reverse order and
// the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var started []*slot
	for _, s := range r.slots {
		if s.running {
			continue
		}
		name := s.c.Name()
		if err := s.c.Start(ctx); err != nil {
			r.log.Error("start failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
			for i := len(started) - 1; i >= 0; i-- {
				_ = r.stop(ctx, started[i])
			}
			return fmt.Errorf("start %s: %w", name, err)
		}
		s.running = true
		started = append(started, s)
		r.log.Debug("started", logger.Fields(logger.FieldComponent, name))
	}
	return nil
}

// StopAll stops running components in reverse order. A failing Stop does
// not prevent the others; all failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.slots) - 1; i >= 0; i-- {
		if s := r.slots[i]; s.running {
			errs = append(errs, r.stop(ctx, s))
		}
	}
	return stderrors.Join(errs...)
}

// stop must hold r.mu.
func (r *Registry) stop(ctx context.Context, s *slot) error {
	ctx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	s.running = false
	name := s.c.Name()
	if err := s.c.Stop(ctx); err != nil {
		r.log.Error("stop failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
		return fmt.Errorf("stop %s: %w", name, err)
	}
	r.log.Info("stopped", logger.Fields(logger.FieldComponent, name))
	return nil
}

// HealthAll checks every component concurrently and returns the results in
// registration order. A check that outlives the health timeout is reported
// unhealthy.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	components := r.components()
	out := make([]Health, len(components))
	var g errgroup.Group
	for i, c := range components {
		g.Go(func() error {
			out[i] = r.check(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Registry) check(ctx context.Context, c Component) Health {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()
	done := make(chan Health, 1)
	go func() { done <- c.Health(ctx) }()
	select {
	case h := <-done:
		if h.Name == "" {
			h.Name = c.Name()
		}
		return h
	case <-ctx.Done():
		return Health{Name: c.Name(), Status: StatusUnhealthy, Message: "health check timed out"}
	}
}

// Describe summarizes every component in registration order. Components
// that are not Describable are listed by name only.
func (r *Registry) Describe() []Description {
	components := r.components()
	out := make([]Description, len(components))
	for i, c := range components {
		var d Description
		if dc, ok := c.(Describable); ok {
			d = dc.Describe()
		}
		if d.Name == "" {
			d.Name = c.Name()
		}
		out[i] = d
	}
	return out
}

func (r *Registry) components() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Component, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.c
	}
	return out
}
