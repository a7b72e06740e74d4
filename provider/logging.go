package provider

import (
	"context"
	"time"

	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
)

// WithLogging returns a Middleware that logs adapter lifecycle calls.
// Load and Unload are logged at info, Process failures at debug since the
// frame pipeline already treats them as transient.
func WithLogging(log *logger.Logger) Middleware {
	return func(kind Kind, inner Adapter) Adapter {
		return &loggingAdapter{inner: inner, kind: kind, log: log}
	}
}

type loggingAdapter struct {
	inner Adapter
	kind  Kind
	log   *logger.Logger
}

func (l *loggingAdapter) Load(ctx context.Context) error {
	start := time.Now()
	err := l.inner.Load(ctx)
	fields := logger.Fields(
		logger.FieldProvider, string(l.kind),
		logger.FieldOperation, "load",
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	if err != nil {
		l.log.Error("provider load failed", logger.MergeWithError(fields, err))
	} else {
		l.log.Info("provider loaded", fields)
	}
	return err
}

func (l *loggingAdapter) Unload() {
	l.inner.Unload()
	l.log.Info("provider unloaded", logger.Fields(logger.FieldProvider, string(l.kind)))
}

func (l *loggingAdapter) Resize(width, height uint32) {
	l.inner.Resize(width, height)
}

func (l *loggingAdapter) Configure(opts Options) {
	l.inner.Configure(opts)
	l.log.Debug("provider configured", logger.Fields(logger.FieldProvider, string(l.kind), "mode", opts.Mode.String()))
}

func (l *loggingAdapter) Process(ctx context.Context, input gfx.Texture) (gfx.Texture, gfx.Texture, error) {
	alpha, color, err := l.inner.Process(ctx, input)
	if err != nil {
		l.log.Debug("provider process failed", logger.Fields(
			logger.FieldProvider, string(l.kind),
			logger.FieldOperation, "process",
			logger.FieldError, err,
		))
	}
	return alpha, color, err
}
