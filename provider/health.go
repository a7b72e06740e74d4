package provider

import "time"

// Status represents the probed health of a provider.
type Status int

const (
	// StatusUnknown means the provider has not been probed yet.
	StatusUnknown Status = iota
	// StatusHealthy means the provider can be loaded.
	StatusHealthy
	// StatusUnavailable means probing failed and the provider is excluded
	// from selection.
	StatusUnavailable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HealthStatus is the outcome of the last probe of one provider.
type HealthStatus struct {
	Status   Status
	Message  string
	ProbedAt time.Time
	Duration time.Duration
}
