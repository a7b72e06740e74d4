package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
)

// Registration describes one compiled-in provider.
type Registration struct {
	Kind Kind
	// Name is shown in the provider selector.
	Name string
	// Priority ranks the provider for automatic selection; higher wins.
	Priority int
	// Probe checks availability. A nil Probe means always available.
	Probe   ProbeFunc
	Factory Factory
}

type entry struct {
	reg    Registration
	health HealthStatus
}

// Registry records which providers exist, which of them are available on
// this machine and how to build their adapters. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	entries    map[Kind]*entry
	order      []Kind
	selector   Selector
	middleware []Middleware
	log        *logger.Logger
	metrics    *observability.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSelector replaces the default PrioritySelector.
func WithSelector(s Selector) RegistryOption {
	return func(r *Registry) { r.selector = s }
}

// WithMiddleware wraps every adapter the registry creates.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(r *Registry) { r.middleware = append(r.middleware, mw...) }
}

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithAvailabilityMetrics records provider availability on m.
func WithAvailabilityMetrics(m *observability.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:  make(map[Kind]*entry),
		selector: PrioritySelector{},
		log:      logger.Get("provider"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider. Registering a sentinel kind, a duplicate kind or
// a nil factory is a programming error and panics.
func (r *Registry) Register(reg Registration) {
	if !reg.Kind.IsConcrete() {
		panic(fmt.Sprintf("provider: cannot register sentinel kind %q", reg.Kind))
	}
	if reg.Factory == nil {
		panic(fmt.Sprintf("provider: nil factory for %q", reg.Kind))
	}
	if reg.Name == "" {
		reg.Name = string(reg.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[reg.Kind]; ok {
		panic(fmt.Sprintf("provider: %q registered twice", reg.Kind))
	}
	r.entries[reg.Kind] = &entry{reg: reg}
	r.order = append(r.order, reg.Kind)
}

// Probe checks every registered provider and records its availability.
// Failures, including panics, are logged and never returned. It returns the
// number of available providers.
func (r *Registry) Probe(ctx context.Context) int {
	r.mu.RLock()
	regs := make([]Registration, 0, len(r.order))
	for _, kind := range r.order {
		regs = append(regs, r.entries[kind].reg)
	}
	r.mu.RUnlock()

	available := 0
	for _, reg := range regs {
		health := r.probeOne(ctx, reg)
		if health.Status == StatusHealthy {
			available++
		}
		r.metrics.RecordProviderAvailable(ctx, string(reg.Kind), health.Status == StatusHealthy)

		r.mu.Lock()
		if e, ok := r.entries[reg.Kind]; ok {
			e.health = health
		}
		r.mu.Unlock()
	}
	return available
}

func (r *Registry) probeOne(ctx context.Context, reg Registration) (health HealthStatus) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := errors.ProviderUnavailable(string(reg.Kind)).WithCause(fmt.Errorf("probe panicked: %v", p))
			health = r.unavailable(reg, start, err)
		}
	}()

	if reg.Probe == nil {
		return HealthStatus{Status: StatusHealthy, ProbedAt: start}
	}
	if err := reg.Probe(ctx); err != nil {
		return r.unavailable(reg, start, err)
	}
	duration := time.Since(start)
	r.log.Debug("provider available", logger.Fields(
		logger.FieldProvider, string(reg.Kind),
		logger.FieldDuration, duration.Milliseconds(),
	))
	return HealthStatus{Status: StatusHealthy, ProbedAt: start, Duration: duration}
}

func (r *Registry) unavailable(reg Registration, start time.Time, err error) HealthStatus {
	duration := time.Since(start)
	r.log.Warn("provider unavailable", logger.Fields(
		logger.FieldProvider, string(reg.Kind),
		logger.FieldDuration, duration.Milliseconds(),
		logger.FieldError, err,
	))
	return HealthStatus{Status: StatusUnavailable, Message: err.Error(), ProbedAt: start, Duration: duration}
}

// IsAvailable reports whether kind was probed successfully.
func (r *Registry) IsAvailable(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind]
	return ok && e.health.Status == StatusHealthy
}

// Available returns the available kinds ordered by descending priority.
func (r *Registry) Available() []Kind {
	candidates := r.candidates()
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	kinds := make([]Kind, len(candidates))
	for i, c := range candidates {
		kinds[i] = c.Kind
	}
	return kinds
}

// AnyAvailable reports whether at least one provider is available.
func (r *Registry) AnyAvailable() bool {
	return len(r.candidates()) > 0
}

// FindIdeal returns the best available provider, or Automatic when none is
// available. Callers must treat Automatic as "no provider usable".
func (r *Registry) FindIdeal() Kind {
	return r.selector.Select(r.candidates())
}

// Resolve maps Automatic to the ideal provider and returns other kinds as is.
func (r *Registry) Resolve(kind Kind) Kind {
	if kind == Automatic {
		return r.FindIdeal()
	}
	return kind
}

// Kinds returns every registered kind in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Kind(nil), r.order...)
}

// DisplayName returns the registered display name of kind.
func (r *Registry) DisplayName(kind Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[kind]; ok {
		return e.reg.Name
	}
	return kind.String()
}

// Health returns the last probe result of every registered provider.
func (r *Registry) Health() map[Kind]HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Kind]HealthStatus, len(r.entries))
	for kind, e := range r.entries {
		out[kind] = e.health
	}
	return out
}

// Create builds a fresh, unloaded adapter for an available provider,
// wrapped in the registry middleware.
func (r *Registry) Create(kind Kind) (Adapter, error) {
	r.mu.RLock()
	e, ok := r.entries[kind]
	var reg Registration
	var healthy bool
	if ok {
		reg, healthy = e.reg, e.health.Status == StatusHealthy
	}
	middleware := r.middleware
	r.mu.RUnlock()

	if !ok {
		return nil, errors.InvalidProvider(string(kind))
	}
	if !healthy {
		return nil, errors.ProviderUnavailable(string(kind))
	}

	adapter, err := reg.Factory()
	if err != nil {
		return nil, errors.LoadFailed(string(kind), err)
	}
	return Chain(middleware...)(kind, adapter), nil
}

func (r *Registry) candidates() []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Candidate, 0, len(r.order))
	for _, kind := range r.order {
		e := r.entries[kind]
		if e.health.Status == StatusHealthy {
			out = append(out, Candidate{Kind: kind, Priority: e.reg.Priority})
		}
	}
	return out
}
