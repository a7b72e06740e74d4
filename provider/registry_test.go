package provider_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/provider/providertest"
)

const (
	kindFast  provider.Kind = "fast"
	kindBest  provider.Kind = "best"
	kindLocal provider.Kind = "local"
)

func newRegistry(opts ...provider.RegistryOption) *provider.Registry {
	return provider.NewRegistry(append([]provider.RegistryOption{provider.WithLogger(logger.Nop())}, opts...)...)
}

func unavailable(context.Context) error { return stderrors.New("no device") }

func TestProbeRecordsAvailability(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry()
	reg.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})
	reg.Register(provider.Registration{Kind: kindBest, Probe: unavailable, Factory: rec.Factory(kindBest)})

	if reg.IsAvailable(kindFast) {
		t.Error("nothing is available before probing")
	}
	if n := reg.Probe(context.Background()); n != 1 {
		t.Fatalf("Probe = %d, want 1", n)
	}
	if !reg.IsAvailable(kindFast) || reg.IsAvailable(kindBest) {
		t.Errorf("availability fast=%v best=%v", reg.IsAvailable(kindFast), reg.IsAvailable(kindBest))
	}
	if !reg.AnyAvailable() {
		t.Error("AnyAvailable = false")
	}

	health := reg.Health()
	if health[kindBest].Status != provider.StatusUnavailable || health[kindBest].Message != "no device" {
		t.Errorf("best health = %+v", health[kindBest])
	}
	if health[kindFast].Status != provider.StatusHealthy {
		t.Errorf("fast health = %+v", health[kindFast])
	}
}

func TestProbeRecoversPanicAndLogs(t *testing.T) {
	var buf bytes.Buffer
	rec := providertest.NewRecorder()
	reg := provider.NewRegistry(provider.WithLogger(logger.NewWithWriter(&buf, "debug", "test")))
	reg.Register(provider.Registration{
		Kind:    kindBest,
		Probe:   func(context.Context) error { panic("driver crashed") },
		Factory: rec.Factory(kindBest),
	})
	reg.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})

	if n := reg.Probe(context.Background()); n != 1 {
		t.Fatalf("Probe = %d, want 1", n)
	}
	if reg.IsAvailable(kindBest) {
		t.Error("panicking provider must be unavailable")
	}
	out := buf.String()
	if !strings.Contains(out, "provider unavailable") || !strings.Contains(out, "driver crashed") {
		t.Errorf("expected warning log, got %q", out)
	}
}

func TestProbeEmptyRegistry(t *testing.T) {
	reg := newRegistry()
	if n := reg.Probe(context.Background()); n != 0 {
		t.Errorf("Probe = %d", n)
	}
	if reg.AnyAvailable() {
		t.Error("AnyAvailable on empty registry")
	}
	if got := reg.FindIdeal(); got != provider.Automatic {
		t.Errorf("FindIdeal = %v, want Automatic", got)
	}
}

func TestFindIdealPrefersPriority(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry()
	reg.Register(provider.Registration{Kind: kindFast, Priority: 1, Factory: rec.Factory(kindFast)})
	reg.Register(provider.Registration{Kind: kindBest, Priority: 10, Factory: rec.Factory(kindBest)})
	reg.Register(provider.Registration{Kind: kindLocal, Priority: 10, Factory: rec.Factory(kindLocal)})
	reg.Probe(context.Background())

	if got := reg.FindIdeal(); got != kindBest {
		t.Errorf("FindIdeal = %v, want %v", got, kindBest)
	}
	if got := reg.Resolve(provider.Automatic); got != kindBest {
		t.Errorf("Resolve(Automatic) = %v", got)
	}
	if got := reg.Resolve(kindFast); got != kindFast {
		t.Errorf("Resolve(fast) = %v", got)
	}
	want := []provider.Kind{kindBest, kindLocal, kindFast}
	got := reg.Available()
	if len(got) != len(want) {
		t.Fatalf("Available = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Available = %v, want %v", got, want)
		}
	}
}

func TestFindIdealSkipsUnavailable(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry()
	reg.Register(provider.Registration{Kind: kindBest, Priority: 10, Probe: unavailable, Factory: rec.Factory(kindBest)})
	reg.Register(provider.Registration{Kind: kindFast, Priority: 1, Factory: rec.Factory(kindFast)})
	reg.Probe(context.Background())

	if got := reg.FindIdeal(); got != kindFast {
		t.Errorf("FindIdeal = %v, want %v", got, kindFast)
	}
}

func TestOrderSelector(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry(provider.WithSelector(provider.OrderSelector{Order: []provider.Kind{kindLocal, kindFast, kindBest}}))
	reg.Register(provider.Registration{Kind: kindBest, Priority: 10, Factory: rec.Factory(kindBest)})
	reg.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})
	reg.Probe(context.Background())

	if got := reg.FindIdeal(); got != kindFast {
		t.Errorf("FindIdeal = %v, want %v", got, kindFast)
	}

	none := provider.OrderSelector{Order: []provider.Kind{kindLocal}}
	if got := none.Select([]provider.Candidate{{Kind: kindFast}}); got != provider.Automatic {
		t.Errorf("Select = %v, want Automatic", got)
	}
}

func TestCreate(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry()
	reg.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})
	reg.Register(provider.Registration{Kind: kindBest, Probe: unavailable, Factory: rec.Factory(kindBest)})
	reg.Register(provider.Registration{Kind: kindLocal, Factory: func() (provider.Adapter, error) {
		return nil, stderrors.New("missing model")
	}})
	reg.Probe(context.Background())

	a, err := reg.Create(kindFast)
	if err != nil || a == nil {
		t.Fatalf("Create(fast) = %v, %v", a, err)
	}
	if rec.Count(kindFast, providertest.OpCreate) != 1 {
		t.Error("factory not called")
	}

	if _, err := reg.Create("unknown"); !errors.HasCode(err, errors.ErrCodeInvalidProvider) {
		t.Errorf("unknown kind error = %v", err)
	}
	if _, err := reg.Create(provider.Automatic); !errors.HasCode(err, errors.ErrCodeInvalidProvider) {
		t.Errorf("Automatic error = %v", err)
	}
	if _, err := reg.Create(kindBest); !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
		t.Errorf("unavailable error = %v", err)
	}
	if _, err := reg.Create(kindLocal); !errors.HasCode(err, errors.ErrCodeLoadFailed) {
		t.Errorf("factory error = %v", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	rec := providertest.NewRecorder()
	cases := map[string]provider.Registration{
		"invalid":     {Kind: provider.Invalid, Factory: rec.Factory(provider.Invalid)},
		"automatic":   {Kind: provider.Automatic, Factory: rec.Factory(provider.Automatic)},
		"nil factory": {Kind: kindFast},
	}
	for name, reg := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			newRegistry().Register(reg)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		r := newRegistry()
		r.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		r.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})
	})
}

func TestDisplayNameAndKinds(t *testing.T) {
	rec := providertest.NewRecorder()
	reg := newRegistry()
	reg.Register(provider.Registration{Kind: kindBest, Name: "Best Segmenter", Factory: rec.Factory(kindBest)})
	reg.Register(provider.Registration{Kind: kindFast, Factory: rec.Factory(kindFast)})

	if got := reg.DisplayName(kindBest); got != "Best Segmenter" {
		t.Errorf("DisplayName(best) = %q", got)
	}
	if got := reg.DisplayName(kindFast); got != "fast" {
		t.Errorf("DisplayName(fast) = %q", got)
	}
	if got := reg.DisplayName(provider.Automatic); got != "Automatic" {
		t.Errorf("DisplayName(Automatic) = %q", got)
	}
	kinds := reg.Kinds()
	if len(kinds) != 2 || kinds[0] != kindBest || kinds[1] != kindFast {
		t.Errorf("Kinds = %v", kinds)
	}
}

func TestKindString(t *testing.T) {
	cases := map[provider.Kind]string{
		provider.Invalid:   "N/A",
		provider.Automatic: "Automatic",
		kindFast:           "fast",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%q.String() = %q, want %q", string(kind), got, want)
		}
	}
	if provider.Invalid.IsConcrete() || provider.Automatic.IsConcrete() || !kindFast.IsConcrete() {
		t.Error("IsConcrete mismatch")
	}
}

func TestModeString(t *testing.T) {
	if provider.ModeQuality.String() != "quality" || provider.ModePerformance.String() != "performance" {
		t.Errorf("mode strings = %q, %q", provider.ModeQuality, provider.ModePerformance)
	}
	if provider.DefaultOptions().Mode != provider.ModeQuality {
		t.Error("default mode should be quality")
	}
}
