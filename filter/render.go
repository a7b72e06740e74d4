package filter

import (
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/observability"
)

// Compositing effect contract.
const (
	ParamColor          = "InputA"
	ParamAlpha          = "InputB"
	ParamThreshold      = "Threshold"
	ParamThresholdRange = "ThresholdRange"
	TechniqueComposite  = "DrawAlphaThreshold"

	Threshold      float32 = 0.666667
	ThresholdRange float32 = 0.333333
)

// Render draws one frame. The frame passes through unmodified while the
// provider is not ready, without a target or with an empty target. The
// upstream frame is captured and processed at most once per tick; every
// call composites the last published output.
func (i *Instance) Render(src gfx.Source) {
	tw, th, ok := src.TargetSize()
	if !i.ready.Load() || !ok || tw == 0 || th == 0 {
		i.skip(src)
		return
	}

	width, height := i.tickSize()
	if width == 0 || height == 0 {
		width, height = tw, th
	}

	result := observability.FrameCached
	if i.dirty.Load() {
		if !i.refresh(src, width, height) {
			i.skip(src)
			return
		}
		result = observability.FrameProcessed
	}

	if !i.composite(width, height) {
		i.skip(src)
		return
	}
	i.metrics.RecordFrame(i.ctx, result)
}

// refresh captures the upstream frame and runs the provider on it. It
// reports false when the frame must be passed through; dirty then stays
// set so the next call retries.
func (i *Instance) refresh(src gfx.Source, width, height uint32) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.ready.Load() || i.adapter == nil {
		return false
	}

	input, ok, err := i.cache.Capture(src, width, height)
	if err != nil {
		i.log.Error("capture failed", logger.MergeWithError(nil, err))
		return false
	}
	if !ok {
		return false
	}
	i.cache.Reset()

	alpha, color, err := i.adapter.Process(i.ctx, input)
	if err != nil {
		i.metrics.RecordFrame(i.ctx, observability.FrameFailed)
		if !i.failLogged.Swap(true) {
			i.log.Debug("provider failed to process frame", logger.MergeWithError(logger.Fields(
				logger.FieldProvider, i.current.String(),
				logger.FieldWidth, width,
				logger.FieldHeight, height,
			), err))
		}
		return false
	}

	i.cache.Publish(alpha, color)
	i.dirty.Store(false)
	return true
}

// composite draws the published color and alpha through the threshold
// technique. Parameters the effect does not declare are skipped.
func (i *Instance) composite(width, height uint32) bool {
	effect := i.factory.currentEffect()
	if effect == nil {
		return false
	}
	alpha, color := i.cache.Outputs()
	if alpha == nil || color == nil {
		return false
	}

	i.factory.effectMu.Lock()
	defer i.factory.effectMu.Unlock()

	if effect.HasParameter(ParamColor) {
		effect.SetTexture(ParamColor, color, i.samplers[0])
	}
	if effect.HasParameter(ParamAlpha) {
		effect.SetTexture(ParamAlpha, alpha, i.samplers[1])
	}
	if effect.HasParameter(ParamThreshold) {
		effect.SetFloat(ParamThreshold, Threshold)
	}
	if effect.HasParameter(ParamThresholdRange) {
		effect.SetFloat(ParamThresholdRange, ThresholdRange)
	}
	if err := effect.DrawSprite(TechniqueComposite, width, height); err != nil {
		i.log.Debug("composite failed", logger.MergeWithError(nil, err))
		return false
	}
	return true
}

func (i *Instance) skip(src gfx.Source) {
	src.Skip()
	i.metrics.RecordFrame(i.ctx, observability.FrameSkipped)
}
