package observability

import "time"

// Export defaults.
const (
	DefaultEndpoint   = "localhost:4318"
	DefaultInterval   = 15 * time.Second
	DefaultSampleRate = 1.0
)

// Config selects where telemetry is exported.
type Config struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName     string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion  string        `yaml:"service_version" mapstructure:"service_version"`
	Environment     string        `yaml:"environment" mapstructure:"environment"`
	MetricsEndpoint string        `yaml:"metrics_endpoint" mapstructure:"metrics_endpoint"`
	TracesEndpoint  string        `yaml:"traces_endpoint" mapstructure:"traces_endpoint"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval        time.Duration `yaml:"interval" mapstructure:"interval"`
	// SampleRate is the fraction of switch and provider spans kept; zero
	// means DefaultSampleRate. Negative values drop every span.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"lte=1"`
}

// ApplyDefaults fills the export endpoints and rates.
func (c *Config) ApplyDefaults() {
	if c.MetricsEndpoint == "" {
		c.MetricsEndpoint = DefaultEndpoint
	}
	if c.TracesEndpoint == "" {
		c.TracesEndpoint = DefaultEndpoint
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}
