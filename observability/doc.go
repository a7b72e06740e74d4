// Package observability wires OpenTelemetry metrics and traces for the
// greenscreen filter.
//
// Setup installs OTLP/HTTP exporters when enabled and returns the filter
// Metrics. A nil *Metrics is valid and records nothing, so components take
// one unconditionally.
//
//	tel, err := observability.Setup(ctx, cfg.Observability)
//	defer tel.Shutdown(ctx)
//	factory := filter.NewFactory(..., filter.WithMetrics(tel.Metrics))
package observability
