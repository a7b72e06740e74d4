package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of filter spans.
const TracerName = MeterName

// Span names.
const (
	SpanSwitch = "greenscreen.switch"
	SpanProbe  = "greenscreen.probe"
)

// Attribute keys.
const (
	AttrProvider = attribute.Key("greenscreen.provider")
	AttrFrom     = attribute.Key("greenscreen.from")
	AttrTo       = attribute.Key("greenscreen.to")
	AttrInstance = attribute.Key("greenscreen.instance")
)

// StartSpan starts a span on the global tracer with attrs set.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan marks span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SwitchAttributes describes one provider switch.
func SwitchAttributes(instance, from, to string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrInstance.String(instance),
		AttrFrom.String(from),
		AttrTo.String(to),
	}
}
