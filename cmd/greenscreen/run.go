package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/filter"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
)

type runFlags struct {
	input    string
	output   string
	provider string
	mode     string
	frames   int
	wait     time.Duration
}

func newRunCommand(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply the filter to an image and write the composited frame as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root, cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			settings, err := flags.settings(a.cfg.Filter)
			if err != nil {
				return err
			}
			return a.runTask(cmd.Context(), func(ctx context.Context) error {
				return a.renderImage(ctx, flags, settings)
			})
		},
	}
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "input image (PNG or JPEG)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "greenscreen.png", "output PNG")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "provider kind, or \"automatic\" (default from config)")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "quality or performance (default from config)")
	cmd.Flags().IntVar(&flags.frames, "frames", 1, "number of frames to render")
	cmd.Flags().DurationVar(&flags.wait, "wait", 5*time.Second, "how long to wait for the provider to load")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (f *runFlags) settings(base filter.Settings) (filter.Settings, error) {
	s := base
	switch f.provider {
	case "":
	case "automatic", "auto":
		s.Provider = provider.Automatic
	default:
		s.Provider = provider.Kind(f.provider)
	}
	switch f.mode {
	case "":
	case provider.ModeQuality.String():
		s.Options.Mode = provider.ModeQuality
	case provider.ModePerformance.String():
		s.Options.Mode = provider.ModePerformance
	default:
		return s, errors.InvalidConfig("mode", fmt.Sprintf("unknown mode %q", f.mode))
	}
	s.ApplyDefaults()
	return s, s.Validate()
}

func (a *app) renderImage(ctx context.Context, flags *runFlags, settings filter.Settings) error {
	img, err := readImage(flags.input)
	if err != nil {
		return err
	}
	inst, err := a.factory.Create("cli", settings)
	if err != nil {
		return err
	}
	defer inst.Close()

	if err := waitReady(ctx, inst, flags.wait); err != nil {
		return err
	}

	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	src := a.device.NewSource(img)
	for n := 0; n < flags.frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.device.BeginFrame(w, h)
		inst.Tick(w, h)
		inst.Render(src)
	}

	st := inst.State()
	a.log.Info("rendered", logger.Fields(
		logger.FieldProvider, st.Current.String(),
		logger.FieldWidth, w,
		logger.FieldHeight, h,
		"frames", flags.frames,
		"captures", src.Captures(),
		"skips", src.Skips(),
	))
	return writePNG(flags.output, a.device.Framebuffer())
}

// waitReady polls until the instance's provider is loaded.
func waitReady(ctx context.Context, inst *filter.Instance, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if inst.State().Ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.LoadFailed(inst.State().Current.String(),
				fmt.Errorf("provider not ready after %s: %w", timeout, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ResourceMissing(path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.InvalidConfig("input", err.Error()).WithCause(err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Internal(err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Internal(err)
	}
	return f.Close()
}
