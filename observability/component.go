package observability

import (
	"context"

	"github.com/kbukum/greenscreen/component"
)

// ComponentName is the registry name of Telemetry.
const ComponentName = "telemetry"

// Name implements component.Component.
func (t *Telemetry) Name() string { return ComponentName }

// Start is a no-op; Setup already installed the providers.
func (t *Telemetry) Start(context.Context) error { return nil }

// Stop flushes the exporters.
func (t *Telemetry) Stop(ctx context.Context) error { return t.Shutdown(ctx) }

// Health reports degraded when export is disabled.
func (t *Telemetry) Health(context.Context) component.Health {
	if !t.cfg.Enabled {
		return component.Health{Name: ComponentName, Status: component.StatusDegraded, Message: "export disabled"}
	}
	return component.Health{Name: ComponentName, Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = "otlp " + t.cfg.MetricsEndpoint
	}
	return component.Description{Name: "Telemetry", Type: ComponentName, Details: details}
}

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)
