package observability

import (
	"context"
	"errors"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// MeterName is the instrumentation scope of the filter metrics.
const MeterName = "github.com/kbukum/greenscreen"

// Telemetry owns the installed providers.
type Telemetry struct {
	Metrics *Metrics

	cfg            Config
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider

	shutdownOnce sync.Once
	shutdownErr  error
}

// Setup installs exporters when cfg.Enabled and builds the filter metrics
// on the global meter. When disabled the metrics use the no-op global
// provider.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{cfg: cfg}
	if cfg.Enabled {
		mp, err := InitMeter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		t.meterProvider = mp

		tp, err := InitTracer(ctx, cfg)
		if err != nil {
			_ = mp.Shutdown(ctx)
			return nil, err
		}
		t.tracerProvider = tp
	}

	metrics, err := NewMetrics(Meter(MeterName))
	if err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	t.Metrics = metrics
	return t, nil
}

// Shutdown flushes and stops the installed providers. Later calls return
// the first result.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	t.shutdownOnce.Do(func() {
		var errs []error
		if t.tracerProvider != nil {
			errs = append(errs, t.tracerProvider.Shutdown(ctx))
		}
		if t.meterProvider != nil {
			errs = append(errs, t.meterProvider.Shutdown(ctx))
		}
		t.shutdownErr = errors.Join(errs...)
	})
	return t.shutdownErr
}
