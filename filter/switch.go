package filter

import (
	"context"
	"time"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/threadpool"
)

// switchRequest is the input of one switch task, copied at push time.
type switchRequest struct {
	from      provider.Kind
	to        provider.Kind
	requested time.Time
}

// SwitchProvider makes kind the current provider. Requesting the current
// provider is a no-op. Otherwise readiness is dropped at once, so no frame
// reaches the old adapter, and a background task replaces the adapter.
//
// A previous task that has not started is discarded; one that is running
// is awaited first, so at most one task exists per instance.
func (i *Instance) SwitchProvider(kind provider.Kind) error {
	if !kind.IsConcrete() {
		return errors.InvalidProvider(kind.String())
	}

	i.switchMu.Lock()
	defer i.switchMu.Unlock()

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return errors.PoolClosed()
	}
	if kind == i.current {
		i.mu.Unlock()
		return nil
	}
	prev := i.task
	i.mu.Unlock()

	// A running task needs mu to finish, so it is awaited without it.
	if prev != nil {
		i.pool.Pop(prev)
		prev.Await()
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	req := switchRequest{from: i.current, to: kind, requested: time.Now()}

	// The task blocks on mu, so committing after the push is safe.
	task, err := threadpool.Push(i.pool, i.runSwitch, req)
	if err != nil {
		// Fall back to what is actually loaded so a retry of kind queues
		// a new task instead of being a no-op.
		i.task = nil
		i.current = i.loaded
		if i.adapter != nil {
			i.adapter.Configure(i.settings.Options)
			i.dirty.Store(true)
			i.ready.Store(true)
		}
		i.log.Error("failed to queue provider switch", logger.MergeWithError(logger.Fields(
			logger.FieldFrom, req.from.String(),
			logger.FieldTo, req.to.String(),
		), err))
		return err
	}
	i.current = kind
	i.ready.Store(false)
	i.task = task
	i.log.Debug("provider switch queued", logger.Fields(
		logger.FieldFrom, req.from.String(),
		logger.FieldTo, req.to.String(),
		logger.FieldTaskID, task.ID,
	))
	return nil
}

// runSwitch unloads the adapter the instance holds, then creates, loads
// and configures the adapter for req.to. It runs on a pool worker with the
// provider lock held throughout.
func (i *Instance) runSwitch(ctx context.Context, req switchRequest) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSwitch,
		observability.SwitchAttributes(i.name, req.from.String(), req.to.String())...)

	start := time.Now()
	fields := logger.Fields(
		logger.FieldFrom, req.from.String(),
		logger.FieldTo, req.to.String(),
	)
	defer func() {
		i.metrics.RecordSwitch(ctx, req.from.String(), req.to.String(), err, time.Since(start))
		observability.EndSpan(span, err)
		if err != nil {
			i.log.Error("failed to switch provider", logger.MergeWithError(fields, err))
			return
		}
		fields[logger.FieldDuration] = time.Since(start).Milliseconds()
		fields["queued_ms"] = start.Sub(req.requested).Milliseconds()
		i.log.Info("provider switched", fields)
	}()

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.adapter != nil {
		i.adapter.Unload()
		i.adapter = nil
	}
	i.loaded = provider.Invalid
	// Drop views into the released adapter.
	i.cache.Reset()

	adapter, err := i.registry.Create(req.to)
	if err != nil {
		return err
	}
	if err := adapter.Load(ctx); err != nil {
		adapter.Unload()
		if _, ok := errors.AsAppError(err); !ok {
			err = errors.LoadFailed(string(req.to), err)
		}
		return err
	}

	adapter.Configure(i.settings.Options)
	if w, h := i.tickSize(); w > 0 && h > 0 {
		adapter.Resize(w, h)
	}
	i.adapter = adapter
	i.loaded = req.to
	i.dirty.Store(true)
	i.ready.Store(true)
	return nil
}
