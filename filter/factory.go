package filter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/greenscreen/component"
	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/threadpool"
)

const (
	// FactoryID identifies the filter kind to the host.
	FactoryID = "streamfx-filter-virtual-greenscreen"
	// DisplayName is the human-readable filter name.
	DisplayName = "Virtual Greenscreen"
	// HelpURL is opened by the manual action.
	HelpURL = "https://github.com/Xaymar/obs-StreamFX/wiki/Filter-Virtual-Greenscreen"
)

// Info describes the filter kind advertised to the host.
type Info struct {
	ID           string
	Type         string
	Flags        []string
	SupportsSize bool
}

// Opener opens a URL for the user.
type Opener func(url string) error

// Factory owns the provider registry, the worker pool and the compositing
// effect, and builds Instances. It implements component.Component: Start
// probes the providers and loads the effect, Stop destroys every live
// instance.
type Factory struct {
	registry   *provider.Registry
	device     gfx.Device
	effectPath string
	log        *logger.Logger
	metrics    *observability.Metrics
	opener     Opener
	pool       *threadpool.Pool
	poolCfg    threadpool.Config
	ownsPool   bool

	// effectMu serializes parameter binding and drawing on the shared effect.
	// The effect itself is published atomically so Render never waits on mu,
	// which Start holds while probing providers.
	effectMu sync.Mutex
	effect   atomic.Pointer[effectSlot]

	mu         sync.Mutex
	started    bool
	registered bool
	instances  map[*Instance]struct{}
}

type effectSlot struct{ gfx.Effect }

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the factory logger. Instances derive theirs from it.
func WithLogger(l *logger.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMetrics records switch, frame and task metrics on m.
func WithMetrics(m *observability.Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

// WithEffectPath overrides the compositing effect program.
func WithEffectPath(path string) FactoryOption {
	return func(f *Factory) {
		if path != "" {
			f.effectPath = path
		}
	}
}

// WithPoolConfig sizes the worker pool the factory creates on Start.
func WithPoolConfig(cfg threadpool.Config) FactoryOption {
	return func(f *Factory) { f.poolCfg = cfg }
}

// WithPool makes instances run switch tasks on p. The factory does not
// close a pool it did not create.
func WithPool(p *threadpool.Pool) FactoryOption {
	return func(f *Factory) { f.pool = p }
}

// WithOpener sets how OpenManual opens the help URL.
func WithOpener(o Opener) FactoryOption {
	return func(f *Factory) { f.opener = o }
}

// DefaultEffectPath is the effect program loaded when none is configured.
const DefaultEffectPath = "effects/virtual-greenscreen.effect"

// NewFactory creates a factory for providers in registry, drawing with
// device. Providers must be registered before Start.
func NewFactory(registry *provider.Registry, device gfx.Device, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry:   registry,
		device:     device,
		effectPath: DefaultEffectPath,
		log:        logger.Get("filter"),
		instances:  make(map[*Instance]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the factory id.
func (f *Factory) Name() string { return FactoryID }

// Start probes the providers and loads the effect. When no provider is
// available the filter is not registered and Create fails; Start itself
// still succeeds.
func (f *Factory) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProbe)
	available := f.registry.Probe(ctx)
	span.End()

	if available == 0 {
		f.log.Error("no segmentation provider available, filter not registered", logger.Fields(
			"providers", len(f.registry.Kinds()),
		))
		f.started = true
		return nil
	}

	effect, err := f.device.LoadEffect(f.effectPath)
	if err != nil {
		f.log.Error("failed to load effect", logger.MergeWithError(
			logger.Fields(logger.FieldPath, f.effectPath), err))
	} else if effect != nil {
		f.effect.Store(&effectSlot{effect})
	}

	if f.pool == nil {
		f.pool = threadpool.New(f.poolCfg,
			threadpool.WithLogger(f.log.WithComponent("threadpool")),
			threadpool.WithHooks(threadpool.Hooks{
				OnStart:  func(*threadpool.Task) { f.metrics.TaskStarted(context.Background()) },
				OnFinish: func(*threadpool.Task, error) { f.metrics.TaskFinished(context.Background()) },
			}),
		)
		f.ownsPool = true
	}

	f.registered = true
	f.started = true
	f.log.Info("filter registered", logger.Fields("available", available))
	return nil
}

// Stop destroys every live instance and releases the shared resources.
func (f *Factory) Stop(ctx context.Context) error {
	f.mu.Lock()
	instances := make([]*Instance, 0, len(f.instances))
	for inst := range f.instances {
		instances = append(instances, inst)
	}
	f.mu.Unlock()

	var g errgroup.Group
	for _, inst := range instances {
		g.Go(func() error {
			inst.Close()
			return nil
		})
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return errors.Internal(fmt.Errorf("stopping %d instances: %w", len(instances), ctx.Err()))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ownsPool && f.pool != nil {
		f.pool.Close()
		f.pool = nil
		f.ownsPool = false
	}
	if slot := f.effect.Swap(nil); slot != nil {
		f.effectMu.Lock()
		slot.Release()
		f.effectMu.Unlock()
	}
	f.registered = false
	f.started = false
	return nil
}

// Health reports unhealthy while the filter is not registered and
// degraded when the effect is missing.
func (f *Factory) Health(context.Context) component.Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := component.Health{Name: FactoryID, Status: component.StatusHealthy}
	switch {
	case !f.registered:
		h.Status = component.StatusUnhealthy
		h.Message = "no provider available"
	case f.effect.Load() == nil:
		h.Status = component.StatusDegraded
		h.Message = "effect not loaded: " + f.effectPath
	}
	return h
}

// Describe summarizes the factory for the startup banner.
func (f *Factory) Describe() component.Description {
	kinds := f.registry.Available()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return component.Description{
		Name:    DisplayName,
		Type:    "filter",
		Details: fmt.Sprintf("providers=[%s] effect=%s", strings.Join(names, ","), f.effectPath),
	}
}

// Info returns the registration info of the filter kind.
func (f *Factory) Info() Info {
	return Info{
		ID:           FactoryID,
		Type:         "filter",
		Flags:        []string{"video", "custom_draw"},
		SupportsSize: true,
	}
}

// Registered reports whether Start found at least one provider.
func (f *Factory) Registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered
}

// Registry returns the provider registry.
func (f *Factory) Registry() *provider.Registry { return f.registry }

// Defaults returns the settings of a freshly attached instance.
func (f *Factory) Defaults() Settings { return DefaultSettings() }

// OpenManual opens the filter documentation. It has no effect on any
// instance.
func (f *Factory) OpenManual() error {
	if f.opener == nil {
		return errors.Internal(fmt.Errorf("no opener configured"))
	}
	if err := f.opener(HelpURL); err != nil {
		f.log.Warn("failed to open manual", logger.MergeWithError(logger.Fields("url", HelpURL), err))
		return err
	}
	return nil
}

// Create attaches a new instance named name and applies settings, which
// starts loading its provider in the background.
func (f *Factory) Create(name string, settings Settings) (*Instance, error) {
	f.mu.Lock()
	if !f.registered {
		f.mu.Unlock()
		return nil, errors.ProviderUnavailable(string(provider.Automatic)).
			WithDetail("reason", "filter not registered")
	}
	inst, err := newInstance(f, name)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.instances[inst] = struct{}{}
	f.mu.Unlock()

	err = inst.Update(settings)
	switch {
	case err == nil:
	case errors.HasCode(err, errors.ErrCodeProviderUnavailable):
	case errors.HasCode(err, errors.ErrCodeQueueFull):
		// Passes frames through until a later Update queues the load.
		inst.log.Warn("provider load not queued, instance passes through", logger.MergeWithError(nil, err))
	default:
		inst.Close()
		return nil, err
	}
	return inst, nil
}

// Instances returns the number of live instances.
func (f *Factory) Instances() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.instances)
}

func (f *Factory) forget(inst *Instance) {
	f.mu.Lock()
	delete(f.instances, inst)
	f.mu.Unlock()
}

func (f *Factory) currentEffect() gfx.Effect {
	if slot := f.effect.Load(); slot != nil {
		return slot.Effect
	}
	return nil
}

var (
	_ component.Component   = (*Factory)(nil)
	_ component.Describable = (*Factory)(nil)
)
