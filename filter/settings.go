package filter

import (
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/validation"
)

// Settings is the persisted configuration of one filter instance.
type Settings struct {
	// Provider is the selected provider, or Automatic.
	Provider provider.Kind `yaml:"provider" mapstructure:"provider" json:"provider"`
	// Options are passed to the provider on load and on every update.
	Options provider.Options `yaml:"options" mapstructure:"options" json:"options"`
}

// DefaultSettings returns automatic provider selection in quality mode.
func DefaultSettings() Settings {
	return Settings{Provider: provider.Automatic, Options: provider.DefaultOptions()}
}

// ApplyDefaults selects Automatic when no provider is set.
func (s *Settings) ApplyDefaults() {
	if s.Provider == provider.Invalid {
		s.Provider = provider.Automatic
	}
}

// Validate checks the provider options.
func (s Settings) Validate() error {
	return validation.Validate(&s)
}
