package component

import "context"

// HealthStatus is the coarse state reported by Health.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's answer to a health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a long-lived part of the process owned by a Registry.
type Component interface {
	// Name is unique within a Registry.
	Name() string
	Start(ctx context.Context) error
	// Stop releases everything Start acquired. ctx carries the stop budget.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is one row of the startup summary.
type Description struct {
	// Name defaults to the component's Name.
	Name string
	// Type groups rows, for example "filter" or "telemetry".
	Type    string
	Details string
}

// Describable components report their own summary row.
type Describable interface {
	Describe() Description
}
