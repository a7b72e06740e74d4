package filter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/texture"
	"github.com/kbukum/greenscreen/threadpool"
)

// Instance is the greenscreen filter attached to one source.
//
// Tick and Render are called from the host's render thread. Update,
// SwitchProvider and Close come from the configuration path and may block.
type Instance struct {
	name     string
	factory  *Factory
	registry *provider.Registry
	pool     *threadpool.Pool
	log      *logger.Logger
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// switchMu serializes SwitchProvider and Close.
	switchMu sync.Mutex

	// mu is the provider lock. It guards the adapter, the texture cache and
	// the fields below, and is held by switch tasks for the whole
	// unload+load sequence.
	mu       sync.Mutex
	current  provider.Kind
	ui       provider.Kind
	adapter  provider.Adapter
	loaded   provider.Kind // kind of adapter, Invalid when nil
	settings Settings
	task     *threadpool.Task
	closed   bool
	cache    *texture.Cache
	samplers [2]gfx.Sampler

	// ready and dirty are written under mu and read without it by the
	// render thread.
	ready atomic.Bool
	dirty atomic.Bool
	// size packs the last tick size as width<<32 | height.
	size atomic.Uint64
	// failLogged limits process failure logs to one per tick.
	failLogged atomic.Bool

	closeOnce sync.Once
}

// State is a snapshot of an instance's provider state.
type State struct {
	Current provider.Kind
	UI      provider.Kind
	Ready   bool
	Dirty   bool
	Width   uint32
	Height  uint32
}

func newInstance(f *Factory, name string) (*Instance, error) {
	cache, err := texture.New(f.device)
	if err != nil {
		return nil, err
	}
	var samplers [2]gfx.Sampler
	for i := range samplers {
		s, err := f.device.CreateSampler(gfx.ClampLinear())
		if err != nil {
			cache.Release()
			return nil, errors.Internal(err).WithDetail("resource", "sampler")
		}
		samplers[i] = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	inst := &Instance{
		name:     name,
		factory:  f,
		registry: f.registry,
		pool:     f.pool,
		log:      f.log.WithFields(logger.Fields(logger.FieldInstance, name)),
		metrics:  f.metrics,
		ctx:      ctx,
		cancel:   cancel,
		current:  provider.Invalid,
		loaded:   provider.Invalid,
		ui:       provider.Invalid,
		settings: DefaultSettings(),
		cache:    cache,
		samplers: samplers,
	}
	return inst, nil
}

// Name returns the instance name.
func (i *Instance) Name() string { return i.name }

// Update stores settings, reconfigures the ready provider and switches to
// the selected provider. Automatic resolves to the best available one.
func (i *Instance) Update(settings Settings) error {
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		i.log.Error("invalid settings", logger.MergeWithError(nil, err))
		return err
	}

	i.mu.Lock()
	i.settings = settings
	i.ui = settings.Provider
	if i.ready.Load() && i.adapter != nil {
		i.adapter.Configure(settings.Options)
	}
	i.mu.Unlock()

	kind := i.registry.Resolve(settings.Provider)
	if !kind.IsConcrete() {
		i.log.Warn("no provider available for selection", logger.Fields(logger.FieldProvider, settings.Provider.String()))
		return errors.ProviderUnavailable(settings.Provider.String())
	}
	return i.SwitchProvider(kind)
}

// Load applies persisted settings. It is Update under the host's name.
func (i *Instance) Load(settings Settings) error {
	return i.Update(settings)
}

// Migrate upgrades settings saved by an older version. No migration is
// needed yet.
func (i *Instance) Migrate(settings Settings, version uint64) Settings {
	return settings
}

// Tick records the size of the element the filter draws for, forwards it
// to the ready provider and invalidates the cached output.
func (i *Instance) Tick(width, height uint32) {
	i.size.Store(uint64(width)<<32 | uint64(height))

	if i.ready.Load() && width > 0 && height > 0 {
		i.mu.Lock()
		if i.ready.Load() && i.adapter != nil {
			i.adapter.Resize(width, height)
		}
		i.mu.Unlock()
	}

	i.failLogged.Store(false)
	i.dirty.Store(true)
}

func (i *Instance) tickSize() (uint32, uint32) {
	v := i.size.Load()
	return uint32(v >> 32), uint32(v)
}

// Width returns the output width, at least 1.
func (i *Instance) Width() uint32 {
	w, _ := i.tickSize()
	return max(w, 1)
}

// Height returns the output height, at least 1.
func (i *Instance) Height() uint32 {
	_, h := i.tickSize()
	return max(h, 1)
}

// State returns a snapshot of the provider state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	w, h := i.tickSize()
	return State{
		Current: i.current,
		UI:      i.ui,
		Ready:   i.ready.Load(),
		Dirty:   i.dirty.Load(),
		Width:   w,
		Height:  h,
	}
}

// Close cancels or awaits an in-flight switch, unloads the provider and
// releases the instance's buffers. It is safe to call more than once.
func (i *Instance) Close() {
	i.closeOnce.Do(func() {
		i.switchMu.Lock()
		defer i.switchMu.Unlock()

		i.mu.Lock()
		i.closed = true
		task := i.task
		i.task = nil
		i.mu.Unlock()

		if task != nil {
			i.pool.Pop(task)
			task.Await()
		}

		i.mu.Lock()
		i.ready.Store(false)
		i.current = provider.Invalid
		if i.adapter != nil {
			i.adapter.Unload()
			i.adapter = nil
		}
		i.loaded = provider.Invalid
		i.cache.Release()
		for _, s := range i.samplers {
			if s != nil {
				s.Release()
			}
		}
		i.mu.Unlock()

		i.cancel()
		i.factory.forget(i)
		i.log.Debug("instance destroyed")
	})
}
