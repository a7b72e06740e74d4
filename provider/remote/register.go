package remote

import (
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
)

// Register adds the remote provider to reg. Adapters upload their outputs
// to dev.
func Register(reg *provider.Registry, cfg Config, dev gfx.Device, log *logger.Logger) {
	cfg.ApplyDefaults()
	reg.Register(provider.Registration{
		Kind:     Kind,
		Name:     DisplayName,
		Priority: cfg.Priority,
		Probe:    NewProbe(cfg, nil),
		Factory: func() (provider.Adapter, error) {
			return New(cfg, dev, log), nil
		},
	})
}
