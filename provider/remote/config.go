package remote

import (
	"net/http"
	"time"

	"github.com/kbukum/greenscreen/resilience"
	"github.com/kbukum/greenscreen/security"
)

// Defaults applied by Config.ApplyDefaults.
const (
	DefaultTimeout       = 2 * time.Second
	DefaultHealthPath    = "/healthz"
	DefaultProbeAttempts = 3
	DefaultProbeBackoff  = 200 * time.Millisecond
	DefaultPriority      = 10
)

// Config configures the remote provider.
type Config struct {
	// Endpoint is the base URL of the segmentation service. Empty disables
	// the provider.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// HealthPath is appended to Endpoint when probing.
	HealthPath string `yaml:"health_path" mapstructure:"health_path"`
	// ProbeAttempts is the number of health checks before giving up.
	ProbeAttempts int `yaml:"probe_attempts" mapstructure:"probe_attempts" validate:"gte=0"`
	// ProbeBackoff is the delay before the first probe retry.
	ProbeBackoff time.Duration `yaml:"probe_backoff" mapstructure:"probe_backoff" validate:"gte=0"`
	// Priority ranks the provider for automatic selection.
	Priority int `yaml:"priority" mapstructure:"priority"`

	// Breaker guards segmentation requests.
	Breaker resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	// TLS configures https endpoints.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HealthPath == "" {
		c.HealthPath = DefaultHealthPath
	}
	if c.ProbeAttempts <= 0 {
		c.ProbeAttempts = DefaultProbeAttempts
	}
	if c.ProbeBackoff <= 0 {
		c.ProbeBackoff = DefaultProbeBackoff
	}
	if c.Priority == 0 {
		c.Priority = DefaultPriority
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = string(Kind)
	}
}

// HTTPClient builds the client used for probing and segmentation.
func (c Config) HTTPClient() (*http.Client, error) {
	transport, err := c.TLS.Transport()
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport, Timeout: c.Timeout}, nil
}
