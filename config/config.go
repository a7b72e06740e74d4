package config

import (
	"github.com/kbukum/greenscreen/filter"
	"github.com/kbukum/greenscreen/observability"
	"github.com/kbukum/greenscreen/provider/remote"
	"github.com/kbukum/greenscreen/threadpool"
	"github.com/kbukum/greenscreen/validation"
)

// DefaultServiceName is used when the config file does not name the service.
const DefaultServiceName = "greenscreen"

// DefaultEffectPath is the compositing effect program loaded by the factory.
const DefaultEffectPath = filter.DefaultEffectPath

// Config is the full configuration of a greenscreen process.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pool          threadpool.Config    `yaml:"pool" mapstructure:"pool"`
	EffectPath    string               `yaml:"effect_path" mapstructure:"effect_path" validate:"required"`
	Filter        filter.Settings      `yaml:"filter" mapstructure:"filter"`
	Remote        remote.Config        `yaml:"remote" mapstructure:"remote"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every unset section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pool.ApplyDefaults()
	if c.EffectPath == "" {
		c.EffectPath = DefaultEffectPath
	}
	c.Filter.ApplyDefaults()
	c.Remote.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks the service fields and every tagged section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.Filter.Validate()
}
