package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
)

// Loadable is a configuration record that fills its own defaults and
// checks itself once decoded.
type Loadable interface {
	ApplyDefaults()
	Validate() error
}

// Files is the part of the filesystem the loader touches.
type Files interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFiles struct{}

func (osFiles) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osFiles) LoadEnv(path string) error { return godotenv.Load(path) }

// Option customizes Load.
type Option func(*loader)

// WithFiles replaces the filesystem used to locate and read files.
func WithFiles(files Files) Option { return func(l *loader) { l.files = files } }

// WithConfigFile skips the search and reads path as config.yml.
func WithConfigFile(path string) Option { return func(l *loader) { l.configFile = path } }

// WithEnvFile skips the search and reads path as the .env file.
func WithEnvFile(path string) Option { return func(l *loader) { l.envFile = path } }

// WithLogger sets the logger for unreadable files.
func WithLogger(log *logger.Logger) Option { return func(l *loader) { l.log = log } }

type loader struct {
	service    string
	files      Files
	configFile string
	envFile    string
	log        *logger.Logger
	environ    func() []string
}

func newLoader(service string, opts []Option) *loader {
	l := &loader{service: service, files: osFiles{}, environ: os.Environ}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.WithComponent("config")
	}
	return l
}

// Load decodes the configuration of service into cfg, applies defaults and
// validates the result.
func Load(service string, cfg Loadable, opts ...Option) error {
	if err := Decode(service, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	return cfg.Validate()
}

// Decode layers config.yml, the .env file and the environment into out
// without defaults or validation.
func Decode(service string, out any, opts ...Option) error {
	return newLoader(service, opts).decode(out)
}

func (l *loader) decode(out any) error {
	v := viper.New()

	if path := l.locate(l.configFile, configCandidates(l.service)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			l.log.Warn("config file unreadable", logger.Fields(logger.FieldPath, path, logger.FieldError, err))
		}
	}
	// godotenv never overwrites variables already set.
	if path := l.locate(l.envFile, envCandidates(l.service)); path != "" {
		if err := l.files.LoadEnv(path); err != nil {
			l.log.Warn("env file unreadable", logger.Fields(logger.FieldPath, path, logger.FieldError, err))
		}
	}
	overlayEnv(v, envPrefix(l.service), l.environ())

	if err := v.Unmarshal(out); err != nil {
		return errors.InvalidConfig("", fmt.Sprintf("decode %s config: %v", l.service, err)).WithCause(err)
	}
	return nil
}

// locate returns explicit when given and present, otherwise the first
// candidate that exists.
func (l *loader) locate(explicit string, candidates []string) string {
	if explicit != "" {
		candidates = []string{explicit}
	}
	for _, path := range candidates {
		if l.files.Exists(path) {
			return path
		}
	}
	return ""
}

func configCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/config.yml",
		"../cmd/" + service + "/config.yml",
		"./config/config.yml",
		"../config/config.yml",
		"./config.yml",
	}
}

func envCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/.env",
		"./.env." + service,
		"./config/.env",
		"./.env",
	}
}

// envPrefix is GREEN_SCREEN_ for service "green-screen".
func envPrefix(service string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(service)) + "_"
}

// overlayEnv sets every PREFIX_* variable on v under each key it may spell.
func overlayEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
			continue
		}
		for _, key := range envKeys(strings.TrimPrefix(name, prefix)) {
			v.Set(key, value)
		}
	}
}

// maxSplits bounds the separators envKeys expands; longer names only map
// to their flat and fully nested spellings.
const maxSplits = 6

// envKeys lists the config keys an environment name may stand for: every
// underscore is either part of a key or a nesting separator. POOL_QUEUE_SIZE
// yields pool_queue_size, pool_queue.size, pool.queue_size and
// pool.queue.size.
func envKeys(name string) []string {
	parts := strings.Split(strings.ToLower(name), "_")
	splits := len(parts) - 1
	if splits > maxSplits {
		flat := strings.Join(parts, "_")
		return []string{flat, strings.Join(parts, ".")}
	}
	keys := make([]string, 0, 1<<splits)
	for mask := 0; mask < 1<<splits; mask++ {
		var b strings.Builder
		b.WriteString(parts[0])
		for i, part := range parts[1:] {
			if mask&(1<<(splits-1-i)) != 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
			b.WriteString(part)
		}
		keys = append(keys, b.String())
	}
	return keys
}
