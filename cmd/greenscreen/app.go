package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kbukum/greenscreen/component"
	"github.com/kbukum/greenscreen/config"
	"github.com/kbukum/greenscreen/filter"
	"github.com/kbukum/greenscreen/gfx/soft"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/provider/remote"
	"github.com/kbukum/greenscreen/version"
)

const gracefulTimeout = 15 * time.Second

// app wires the configured providers, the software device and the filter
// factory, and runs one finite task between startup and shutdown.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	telemetry  *observability.Telemetry
	components *component.Registry
	providers  *provider.Registry
	device     *soft.Device
	factory    *filter.Factory
	out        io.Writer
}

// newApp loads the configuration and builds the components. opener handles
// the manual action; nil prints the URL to out.
func newApp(ctx context.Context, flags *rootFlags, out io.Writer, opener filter.Opener) (*app, error) {
	cfg := &config.Config{}
	var opts []config.Option
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	if err := config.Load(config.DefaultServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()

	tel, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("observability setup: %w", err)
	}

	providers := provider.NewRegistry(
		provider.WithLogger(log.WithComponent("provider")),
		provider.WithAvailabilityMetrics(tel.Metrics),
		provider.WithMiddleware(
			provider.WithLogging(log.WithComponent("adapter")),
			provider.WithMetrics(tel.Metrics),
			provider.WithTracing(cfg.Name),
		),
	)
	dev := soft.NewDevice()
	remote.Register(providers, cfg.Remote, dev, log.WithComponent(remote.Kind.String()))

	if opener == nil {
		opener = func(url string) error {
			_, err := fmt.Fprintln(out, url)
			return err
		}
	}
	factory := filter.NewFactory(providers, dev,
		filter.WithLogger(log.WithComponent("filter")),
		filter.WithMetrics(tel.Metrics),
		filter.WithEffectPath(cfg.EffectPath),
		filter.WithPoolConfig(cfg.Pool),
		filter.WithOpener(opener),
	)

	// Telemetry registers first so it stops last and flushes the
	// factory's final metrics.
	components := component.NewRegistry(component.WithLogger(log), component.WithStopTimeout(gracefulTimeout))
	for _, c := range []component.Component{tel, factory} {
		if err := components.Register(c); err != nil {
			_ = tel.Shutdown(ctx)
			return nil, err
		}
	}

	return &app{
		cfg:        cfg,
		log:        log,
		telemetry:  tel,
		components: components,
		providers:  providers,
		device:     dev,
		factory:    factory,
		out:        out,
	}, nil
}

// runTask starts the components, runs task with a context cancelled on
// SIGINT or SIGTERM, then shuts everything down.
func (a *app) runTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.log.Info("starting", logger.Fields(
		logger.FieldService, a.cfg.Name,
		"version", a.cfg.Version,
	))
	if err := a.components.StartAll(ctx); err != nil {
		_ = a.stop()
		return fmt.Errorf("failed to start components: %w", err)
	}
	a.log.Debug("components started", logger.Fields(
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.log.Info("received signal, cancelling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *app) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	if err := a.components.StopAll(ctx); err != nil {
		a.log.Error("shutdown completed with errors", logger.MergeWithError(nil, err))
		return err
	}
	// StopAll skips telemetry when StartAll never ran.
	return a.telemetry.Shutdown(ctx)
}

// summary prints the component descriptions and health as a table.
func (a *app) summary(ctx context.Context) {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Component", "Type", "Status", "Details"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	health := a.components.HealthAll(ctx)
	for i, d := range a.components.Describe() {
		status := "unknown"
		if i < len(health) {
			status = string(health[i].Status)
			if health[i].Message != "" {
				status += " (" + health[i].Message + ")"
			}
		}
		table.Append([]string{d.Name, d.Type, status, d.Details})
	}
	table.Render()
}

// providerTable prints the probe result of every registered provider.
func (a *app) providerTable() {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Provider", "Name", "Status", "Probe", "Message"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	health := a.providers.Health()
	for _, kind := range a.providers.Kinds() {
		h := health[kind]
		table.Append([]string{
			kind.String(),
			a.providers.DisplayName(kind),
			h.Status.String(),
			h.Duration.Round(time.Millisecond).String(),
			h.Message,
		})
	}
	table.Render()
}
