package filter

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/greenscreen/gfx/soft"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/provider/providertest"
	"github.com/kbukum/greenscreen/threadpool"
)

const (
	kindA provider.Kind = "alpha-net"
	kindB provider.Kind = "beta-net"
	kindC provider.Kind = "gamma-net"
)

var red = color.RGBA{255, 0, 0, 255}

type fixture struct {
	t       *testing.T
	dev     *soft.Device
	rec     *providertest.Recorder
	reg     *provider.Registry
	pool    *threadpool.Pool
	factory *Factory

	active    atomic.Int32
	maxActive atomic.Int32
}

// newFixture registers regs, builds a factory on a software device and
// starts it. Tasks run on a pool whose hooks track concurrency.
func newFixture(t *testing.T, workers int, regs []provider.Registration, opts ...FactoryOption) *fixture {
	t.Helper()
	return newFixtureOn(t, soft.NewDevice(), workers, regs, opts...)
}

func newFixtureOn(t *testing.T, dev *soft.Device, workers int, regs []provider.Registration, opts ...FactoryOption) *fixture {
	t.Helper()
	return newFixtureWith(t, dev, threadpool.Config{Workers: workers, QueueSize: 64}, regs, opts...)
}

func newFixtureWith(t *testing.T, dev *soft.Device, cfg threadpool.Config, regs []provider.Registration, opts ...FactoryOption) *fixture {
	t.Helper()
	fx := &fixture{t: t, dev: dev, rec: providertest.NewRecorder()}
	fx.reg = provider.NewRegistry(provider.WithLogger(logger.Nop()))
	for _, r := range regs {
		fx.reg.Register(r)
	}
	fx.pool = threadpool.New(cfg,
		threadpool.WithLogger(logger.Nop()),
		threadpool.WithHooks(threadpool.Hooks{
			OnStart: func(*threadpool.Task) {
				n := fx.active.Add(1)
				for {
					m := fx.maxActive.Load()
					if n <= m || fx.maxActive.CompareAndSwap(m, n) {
						break
					}
				}
			},
			OnFinish: func(*threadpool.Task, error) { fx.active.Add(-1) },
		}),
	)
	opts = append([]FactoryOption{WithLogger(logger.Nop()), WithPool(fx.pool)}, opts...)
	fx.factory = NewFactory(fx.reg, fx.dev, opts...)
	if err := fx.factory.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		fx.factory.Stop(context.Background())
		fx.pool.Close()
	})
	return fx
}

// standardFixture registers kinds A (priority 5) and B (priority 1), both
// available, with extra adapter options for B.
func standardFixture(t *testing.T, bOpts ...providertest.Option) *fixture {
	t.Helper()
	rec := providertest.NewRecorder()
	regs := []provider.Registration{
		{Kind: kindA, Priority: 5, Factory: rec.Factory(kindA)},
		{Kind: kindB, Priority: 1, Factory: rec.Factory(kindB, bOpts...)},
	}
	fx := newFixture(t, 4, regs)
	fx.rec = rec
	return fx
}

func (fx *fixture) create(settings Settings) *Instance {
	fx.t.Helper()
	inst, err := fx.factory.Create(fx.t.Name(), settings)
	if err != nil {
		fx.t.Fatalf("Create: %v", err)
	}
	return inst
}

func (fx *fixture) source() *soft.Source {
	return fx.dev.NewSource(solid(4, 4, red))
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// awaitSwitch waits for the instance's last switch task.
func awaitSwitch(t *testing.T, inst *Instance) {
	t.Helper()
	inst.mu.Lock()
	task := inst.task
	inst.mu.Unlock()
	if task == nil {
		return
	}
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("switch task did not finish")
	}
}

// frame runs one tick and one render at 4x4 on a fresh framebuffer.
func (fx *fixture) frame(inst *Instance, src *soft.Source) {
	fx.dev.BeginFrame(4, 4)
	inst.Tick(4, 4)
	inst.Render(src)
}

// tightFixture registers kinds A, B and C on a pool with one worker and a
// one-slot queue. saturate fills both: a C load blocks the worker until
// release is called, and an A load waits in the queue.
func tightFixture(t *testing.T) (fx *fixture, saturate, release func()) {
	t.Helper()
	gate := make(chan struct{})
	started := make(chan struct{})
	rec := providertest.NewRecorder()
	fx = newFixtureWith(t, soft.NewDevice(), threadpool.Config{Workers: 1, QueueSize: 1}, []provider.Registration{
		{Kind: kindA, Priority: 5, Factory: rec.Factory(kindA)},
		{Kind: kindB, Priority: 1, Factory: rec.Factory(kindB)},
		{Kind: kindC, Priority: 1, Factory: rec.Factory(kindC, providertest.WithLoadGate(gate), providertest.WithLoadStarted(started))},
	})
	fx.rec = rec
	saturate = func() {
		if _, err := fx.factory.Create("busy", withSettings(kindC, provider.ModeQuality)); err != nil {
			t.Fatalf("Create busy: %v", err)
		}
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("blocking load did not start")
		}
		if _, err := fx.factory.Create("queued", withSettings(kindA, provider.ModeQuality)); err != nil {
			t.Fatalf("Create queued: %v", err)
		}
	}
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return fx, saturate, release
}

func withSettings(kind provider.Kind, mode provider.Mode) Settings {
	return Settings{Provider: kind, Options: provider.Options{Mode: mode}}
}

func indexOf(calls []providertest.Call, kind provider.Kind, op string) int {
	for i, c := range calls {
		if c.Kind == kind && c.Op == op {
			return i
		}
	}
	return -1
}
