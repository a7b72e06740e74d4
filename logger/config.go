package logger

import (
	"io"
	"os"
	"slices"

	"github.com/kbukum/greenscreen/errors"
)

// Formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}
	formats = []string{FormatConsole, FormatJSON}
	outputs = []string{"stdout", "stderr"}
)

// Config contains logging configuration.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	// Format is console (default) or json.
	Format string `yaml:"format" mapstructure:"format"`
	// Output is stderr (default) or stdout.
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills the level, format and output.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Validate rejects unknown levels, formats and outputs.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(levels, c.Level):
		return errors.InvalidConfig("logging.level", "must be one of "+join(levels))
	case !slices.Contains(formats, c.Format):
		return errors.InvalidConfig("logging.format", "must be one of "+join(formats))
	case !slices.Contains(outputs, c.Output):
		return errors.InvalidConfig("logging.output", "must be one of "+join(outputs))
	}
	return nil
}

func (c *Config) writer() io.Writer {
	if c.Output == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}

func join(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += "|"
		}
		out += v
	}
	return out
}
