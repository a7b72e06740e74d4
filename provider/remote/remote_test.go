package remote

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/gfx/soft"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/resilience"
	"github.com/kbukum/greenscreen/security"
	"github.com/kbukum/greenscreen/security/tlstest"
)

// segmenter answers with the uploaded image, its alpha channel set to the
// red channel.
func segmenter(t *testing.T, hits *atomic.Int32, lastQuery *atomic.Value) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != SegmentPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if lastQuery != nil {
			lastQuery.Store(r.URL.Query())
		}
		in, err := png.Decode(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b := in.Bounds()
		out := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(in.At(x, y)).(color.NRGBA)
				out.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.R})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, out); err != nil {
			t.Errorf("encode: %v", err)
		}
	}
}

func inputTexture(t *testing.T, dev *soft.Device) gfx.Texture {
	t.Helper()
	pixels := []byte{
		255, 0, 0, 255, 0, 0, 255, 255,
		0, 255, 0, 255, 128, 128, 128, 255,
	}
	tex, err := dev.CreateTexture(2, 2, gputypes.TextureFormatRGBA8Unorm, pixels)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return tex
}

func loaded(t *testing.T, cfg Config, dev gfx.Device) *Adapter {
	t.Helper()
	a := New(cfg, dev, logger.Nop())
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(a.Unload)
	return a
}

func TestProcessSplitsColorAndMask(t *testing.T) {
	var hits atomic.Int32
	var query atomic.Value
	srv := httptest.NewServer(segmenter(t, &hits, &query))
	defer srv.Close()

	dev := soft.NewDevice()
	a := loaded(t, Config{Endpoint: srv.URL}, dev)
	a.Configure(provider.Options{Mode: provider.ModePerformance})
	a.Resize(2, 2)

	alpha, col, err := a.Process(context.Background(), inputTexture(t, dev))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if alpha.Format() != gputypes.TextureFormatR8Unorm || col.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("formats = %v, %v", alpha.Format(), col.Format())
	}

	mask, _ := alpha.(gfx.Readable).ReadPixels()
	if r, _, _, _ := mask.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("mask(0,0) = %d, want 255", r>>8)
	}
	if r, _, _, _ := mask.At(1, 0).RGBA(); r>>8 != 0 {
		t.Errorf("mask(1,0) = %d, want 0", r>>8)
	}
	colors, _ := col.(gfx.Readable).ReadPixels()
	if got := colors.RGBAAt(1, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("color(1,0) = %v, want opaque blue", got)
	}

	q := query.Load().(url.Values)
	if q.Get("mode") != "performance" || q.Get("width") != "2" || q.Get("height") != "2" {
		t.Errorf("query = %v", q)
	}
}

func TestProcessBeforeLoad(t *testing.T) {
	dev := soft.NewDevice()
	a := New(Config{Endpoint: "http://127.0.0.1:1"}, dev, logger.Nop())
	if _, _, err := a.Process(context.Background(), inputTexture(t, dev)); !errors.HasCode(err, errors.ErrCodeProviderNotLoaded) {
		t.Errorf("err = %v, want PROVIDER_NOT_LOADED", err)
	}
	a.Unload()
	a.Unload()
}

func TestLoadRequiresEndpoint(t *testing.T) {
	a := New(Config{}, soft.NewDevice(), logger.Nop())
	if err := a.Load(context.Background()); !errors.HasCode(err, errors.ErrCodeLoadFailed) {
		t.Errorf("err = %v, want LOAD_FAILED", err)
	}
}

func TestProcessServerErrorOpensBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dev := soft.NewDevice()
	cfg := Config{Endpoint: srv.URL, Breaker: resilience.BreakerConfig{Threshold: 2, Cooldown: time.Minute}}
	a := loaded(t, cfg, dev)
	input := inputTexture(t, dev)

	for i := 0; i < 2; i++ {
		_, _, err := a.Process(context.Background(), input)
		if !errors.HasCode(err, errors.ErrCodeProcessFailed) || !errors.IsRetryable(err) {
			t.Fatalf("call %d: err = %v, want retryable PROCESS_FAILED", i, err)
		}
	}
	_, _, err := a.Process(context.Background(), input)
	if !stderrors.Is(err, resilience.ErrOpen) {
		t.Errorf("err = %v, want open circuit", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestProcessRejectsUnreadableInput(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	a := loaded(t, Config{Endpoint: srv.URL}, soft.NewDevice())

	var opaque struct{ gfx.Texture }
	if _, _, err := a.Process(context.Background(), opaque); !errors.HasCode(err, errors.ErrCodeProcessFailed) {
		t.Errorf("err = %v", err)
	}
}

func TestUnloadDropsOutputs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(segmenter(t, &hits, nil))
	defer srv.Close()

	dev := soft.NewDevice()
	a := loaded(t, Config{Endpoint: srv.URL}, dev)
	if _, _, err := a.Process(context.Background(), inputTexture(t, dev)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	a.Unload()
	if a.alpha != nil || a.color != nil || a.client != nil {
		t.Error("Unload kept state")
	}
	a.Resize(4, 4)
	a.Configure(provider.Options{Mode: provider.ModePerformance})
	if a.width != 0 || a.mode != provider.ModeQuality {
		t.Error("Resize and Configure must be no-ops while unloaded")
	}
}

func TestProbe(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	probe := NewProbe(Config{Endpoint: srv.URL, ProbeBackoff: time.Millisecond}, srv.Client())
	if err := probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("health calls = %d, want 3", calls.Load())
	}
}

func TestProbeClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	probe := NewProbe(Config{Endpoint: srv.URL, ProbeBackoff: time.Millisecond}, srv.Client())
	if err := probe(context.Background()); !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("health calls = %d, want 1", calls.Load())
	}
}

func TestProbeWithoutEndpoint(t *testing.T) {
	if err := NewProbe(Config{}, nil)(context.Background()); err == nil {
		t.Error("expected unavailable")
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := provider.NewRegistry(provider.WithLogger(logger.Nop()))
	Register(reg, Config{Endpoint: srv.URL}, soft.NewDevice(), logger.Nop())
	if n := reg.Probe(context.Background()); n != 1 {
		t.Fatalf("Probe = %d", n)
	}
	if reg.FindIdeal() != Kind || reg.DisplayName(Kind) != DisplayName {
		t.Errorf("FindIdeal = %v, name = %q", reg.FindIdeal(), reg.DisplayName(Kind))
	}
	a, err := reg.Create(Kind)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := a.Load(context.Background()); err != nil {
		t.Errorf("Load: %v", err)
	}
	a.Unload()
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != DefaultTimeout || cfg.HealthPath != DefaultHealthPath ||
		cfg.ProbeAttempts != DefaultProbeAttempts || cfg.Priority != DefaultPriority || cfg.Breaker.Name != "remote" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestTLSEndpoint(t *testing.T) {
	certs := tlstest.Generate(t)
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(DefaultHealthPath, func(w http.ResponseWriter, _ *http.Request) {})
	mux.Handle(SegmentPath, segmenter(t, &hits, nil))
	srv := httptest.NewUnstartedServer(mux)
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{certs.Server}}
	srv.StartTLS()
	defer srv.Close()

	untrusted := Config{Endpoint: srv.URL, ProbeAttempts: 1}
	if err := NewProbe(untrusted, nil)(context.Background()); err == nil {
		t.Error("probe trusted an unknown CA")
	}

	cfg := Config{Endpoint: srv.URL, TLS: security.TLSConfig{CAFile: certs.CAFile}}
	if err := NewProbe(cfg, nil)(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}

	dev := soft.NewDevice()
	a := loaded(t, cfg, dev)
	a.Resize(2, 2)
	if _, _, err := a.Process(context.Background(), inputTexture(t, dev)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("segment hits = %d", hits.Load())
	}
}

func TestBadTLSConfig(t *testing.T) {
	cfg := Config{Endpoint: "https://127.0.0.1:1", TLS: security.TLSConfig{CAFile: "/nonexistent/ca.pem"}}

	err := NewProbe(cfg, nil)(context.Background())
	if !errors.HasCode(err, errors.ErrCodeProviderUnavailable) {
		t.Errorf("probe err = %v, want PROVIDER_UNAVAILABLE", err)
	}
	a := New(cfg, soft.NewDevice(), logger.Nop())
	if err := a.Load(context.Background()); !errors.HasCode(err, errors.ErrCodeLoadFailed) {
		t.Errorf("load err = %v, want LOAD_FAILED", err)
	}
}
