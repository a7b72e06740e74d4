package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Frame results recorded by RecordFrame.
const (
	FrameProcessed = "processed"
	FrameCached    = "cached"
	FrameSkipped   = "skipped"
	FrameFailed    = "failed"
)

// Metrics holds the filter instruments. All methods accept a nil receiver.
type Metrics struct {
	switchTotal       metric.Int64Counter
	switchDuration    metric.Float64Histogram
	frameTotal        metric.Int64Counter
	processDuration   metric.Float64Histogram
	providerAvailable metric.Int64Gauge
	taskActive        metric.Int64UpDownCounter
}

// NewMetrics creates the filter instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	switchTotal, err := meter.Int64Counter("greenscreen.switch.total",
		metric.WithDescription("Provider switches by source, target and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.switch.total counter: %w", err)
	}

	switchDuration, err := meter.Float64Histogram("greenscreen.switch.duration",
		metric.WithDescription("Time spent unloading and loading providers"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.switch.duration histogram: %w", err)
	}

	frameTotal, err := meter.Int64Counter("greenscreen.frame.total",
		metric.WithDescription("Render calls by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.frame.total counter: %w", err)
	}

	processDuration, err := meter.Float64Histogram("greenscreen.process.duration",
		metric.WithDescription("Duration of provider process calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.process.duration histogram: %w", err)
	}

	providerAvailable, err := meter.Int64Gauge("greenscreen.provider.available",
		metric.WithDescription("1 when the provider passed probing, 0 otherwise"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.provider.available gauge: %w", err)
	}

	taskActive, err := meter.Int64UpDownCounter("greenscreen.task.active",
		metric.WithDescription("Number of running switch tasks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating greenscreen.task.active counter: %w", err)
	}

	return &Metrics{
		switchTotal:       switchTotal,
		switchDuration:    switchDuration,
		frameTotal:        frameTotal,
		processDuration:   processDuration,
		providerAvailable: providerAvailable,
		taskActive:        taskActive,
	}, nil
}

// RecordSwitch records a finished provider switch.
func (m *Metrics) RecordSwitch(ctx context.Context, from, to string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.switchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("status", status(err)),
	))
	m.switchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("to", to),
	))
}

// RecordFrame counts one render call.
func (m *Metrics) RecordFrame(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.frameTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordProcess records one provider process call.
func (m *Metrics) RecordProcess(ctx context.Context, provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.processDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status(err)),
	))
}

// RecordProviderAvailable records the probe outcome of a provider.
func (m *Metrics) RecordProviderAvailable(ctx context.Context, provider string, available bool) {
	if m == nil {
		return
	}
	var v int64
	if available {
		v = 1
	}
	m.providerAvailable.Record(ctx, v, metric.WithAttributes(attribute.String("provider", provider)))
}

// TaskStarted increments the running task count.
func (m *Metrics) TaskStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.taskActive.Add(ctx, 1)
}

// TaskFinished decrements the running task count.
func (m *Metrics) TaskFinished(ctx context.Context) {
	if m == nil {
		return
	}
	m.taskActive.Add(ctx, -1)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
