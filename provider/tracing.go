package provider

import (
	"context"

	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/observability"
)

// WithTracing returns a Middleware that creates an OpenTelemetry span around
// Load and Process. Span names are "{serviceName}.provider.load" and
// "{serviceName}.provider.process".
func WithTracing(serviceName string) Middleware {
	return func(kind Kind, inner Adapter) Adapter {
		return &tracingAdapter{
			Adapter:     inner,
			kind:        kind,
			loadSpan:    serviceName + ".provider.load",
			processSpan: serviceName + ".provider.process",
		}
	}
}

type tracingAdapter struct {
	Adapter
	kind        Kind
	loadSpan    string
	processSpan string
}

func (t *tracingAdapter) Load(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, t.loadSpan, observability.AttrProvider.String(string(t.kind)))
	defer func() { observability.EndSpan(span, err) }()
	return t.Adapter.Load(ctx)
}

func (t *tracingAdapter) Process(ctx context.Context, input gfx.Texture) (alpha, color gfx.Texture, err error) {
	ctx, span := observability.StartSpan(ctx, t.processSpan, observability.AttrProvider.String(string(t.kind)))
	defer func() { observability.EndSpan(span, err) }()
	return t.Adapter.Process(ctx, input)
}
