package provider

import (
	"context"
	"time"

	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/observability"
)

// WithMetrics returns a Middleware that records process durations.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(kind Kind, inner Adapter) Adapter {
		return &metricsAdapter{Adapter: inner, kind: kind, metrics: metrics}
	}
}

type metricsAdapter struct {
	Adapter
	kind    Kind
	metrics *observability.Metrics
}

func (m *metricsAdapter) Process(ctx context.Context, input gfx.Texture) (gfx.Texture, gfx.Texture, error) {
	start := time.Now()
	alpha, color, err := m.Adapter.Process(ctx, input)
	m.metrics.RecordProcess(ctx, string(m.kind), time.Since(start), err)
	return alpha, color, err
}
