// Package providertest provides a scriptable provider.Adapter for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/provider"
)

// Adapter operations recorded by a Recorder.
const (
	OpCreate    = "create"
	OpLoad      = "load"
	OpUnload    = "unload"
	OpResize    = "resize"
	OpConfigure = "configure"
	OpProcess   = "process"
)

// Call is one recorded adapter call.
type Call struct {
	Kind    provider.Kind
	Op      string
	Width   uint32
	Height  uint32
	Options provider.Options
	Err     error
}

// Recorder collects the calls of every Adapter it creates, in order.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	adapters map[provider.Kind][]*Adapter
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{adapters: make(map[provider.Kind][]*Adapter)}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// Calls returns a copy of every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the operations recorded for kind, in order.
func (r *Recorder) Ops(kind provider.Kind) []string {
	var ops []string
	for _, c := range r.Calls() {
		if c.Kind == kind {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// Count returns how many times op was recorded for kind.
func (r *Recorder) Count(kind provider.Kind, op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Kind == kind && c.Op == op {
			n++
		}
	}
	return n
}

// Last returns the most recent call of op for kind.
func (r *Recorder) Last(kind provider.Kind, op string) (Call, bool) {
	calls := r.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Kind == kind && calls[i].Op == op {
			return calls[i], true
		}
	}
	return Call{}, false
}

// Adapters returns every adapter created for kind.
func (r *Recorder) Adapters(kind provider.Kind) []*Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Adapter(nil), r.adapters[kind]...)
}

// Loaded returns the number of adapters currently loaded across all kinds.
func (r *Recorder) Loaded() int {
	r.mu.Lock()
	all := make([]*Adapter, 0)
	for _, list := range r.adapters {
		all = append(all, list...)
	}
	r.mu.Unlock()

	n := 0
	for _, a := range all {
		if a.IsLoaded() {
			n++
		}
	}
	return n
}

// Factory returns a provider.Factory that creates recorded adapters of kind.
// Each option is applied to every new adapter.
func (r *Recorder) Factory(kind provider.Kind, opts ...Option) provider.Factory {
	return func() (provider.Adapter, error) {
		a := &Adapter{kind: kind, rec: r}
		for _, opt := range opts {
			opt(a)
		}
		r.mu.Lock()
		r.adapters[kind] = append(r.adapters[kind], a)
		r.mu.Unlock()
		r.record(Call{Kind: kind, Op: OpCreate})
		return a, nil
	}
}

// Option configures an Adapter at creation.
type Option func(*Adapter)

// WithLoadError makes Load fail with err.
func WithLoadError(err error) Option {
	return func(a *Adapter) { a.loadErr = err }
}

// WithLoadGate makes Load block until gate is closed or ctx is done.
func WithLoadGate(gate <-chan struct{}) Option {
	return func(a *Adapter) { a.loadGate = gate }
}

// WithLoadStarted closes started when Load begins.
func WithLoadStarted(started chan<- struct{}) Option {
	return func(a *Adapter) { a.loadStarted = started }
}

// WithOutput replaces the default Process output, which returns the input
// as both alpha and color.
func WithOutput(fn func(input gfx.Texture) (alpha, color gfx.Texture)) Option {
	return func(a *Adapter) { a.output = fn }
}

// Adapter is a provider.Adapter that records its calls.
type Adapter struct {
	kind        provider.Kind
	rec         *Recorder
	loadErr     error
	loadGate    <-chan struct{}
	loadStarted chan<- struct{}
	output      func(input gfx.Texture) (gfx.Texture, gfx.Texture)

	mu         sync.Mutex
	loaded     bool
	processErr error
	width      uint32
	height     uint32
	options    provider.Options
}

var _ provider.Adapter = (*Adapter)(nil)

// Load marks the adapter loaded unless a load error is configured.
func (a *Adapter) Load(ctx context.Context) error {
	if a.loadStarted != nil {
		close(a.loadStarted)
	}
	if a.loadGate != nil {
		select {
		case <-a.loadGate:
		case <-ctx.Done():
			a.rec.record(Call{Kind: a.kind, Op: OpLoad, Err: ctx.Err()})
			return ctx.Err()
		}
	}
	if a.loadErr != nil {
		a.rec.record(Call{Kind: a.kind, Op: OpLoad, Err: a.loadErr})
		return a.loadErr
	}
	a.mu.Lock()
	a.loaded = true
	a.mu.Unlock()
	a.rec.record(Call{Kind: a.kind, Op: OpLoad})
	return nil
}

// Unload marks the adapter unloaded. It is idempotent.
func (a *Adapter) Unload() {
	a.mu.Lock()
	a.loaded = false
	a.mu.Unlock()
	a.rec.record(Call{Kind: a.kind, Op: OpUnload})
}

// Resize records the new size.
func (a *Adapter) Resize(width, height uint32) {
	a.mu.Lock()
	a.width, a.height = width, height
	a.mu.Unlock()
	a.rec.record(Call{Kind: a.kind, Op: OpResize, Width: width, Height: height})
}

// Configure records the options.
func (a *Adapter) Configure(opts provider.Options) {
	a.mu.Lock()
	a.options = opts
	a.mu.Unlock()
	a.rec.record(Call{Kind: a.kind, Op: OpConfigure, Options: opts})
}

// Process returns the configured output, or the injected process error.
func (a *Adapter) Process(_ context.Context, input gfx.Texture) (gfx.Texture, gfx.Texture, error) {
	a.mu.Lock()
	loaded, err := a.loaded, a.processErr
	a.mu.Unlock()

	if !loaded {
		err = errors.NotLoaded(string(a.kind))
	}
	a.rec.record(Call{Kind: a.kind, Op: OpProcess, Err: err})
	if err != nil {
		return nil, nil, err
	}
	if a.output != nil {
		alpha, color := a.output(input)
		return alpha, color, nil
	}
	return input, input, nil
}

// FailProcess makes subsequent Process calls return err; nil restores success.
func (a *Adapter) FailProcess(err error) {
	a.mu.Lock()
	a.processErr = err
	a.mu.Unlock()
}

// IsLoaded reports whether Load succeeded and Unload has not been called since.
func (a *Adapter) IsLoaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Size returns the last size passed to Resize.
func (a *Adapter) Size() (uint32, uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.width, a.height
}

// Options returns the last options passed to Configure.
func (a *Adapter) Options() provider.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.options
}
