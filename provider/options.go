package provider

import "fmt"

// Mode trades output quality for speed.
type Mode int

const (
	// ModeQuality is the default, higher quality mode.
	ModeQuality Mode = 0
	// ModePerformance favours throughput.
	ModePerformance Mode = 1
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeQuality:
		return "quality"
	case ModePerformance:
		return "performance"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Options are the user settable provider parameters.
type Options struct {
	Mode Mode `yaml:"mode" mapstructure:"mode" json:"mode" validate:"oneof=0 1"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Mode: ModeQuality}
}
