package gfx

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Texture is a host owned image.
type Texture interface {
	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat
}

// Readable is a texture whose pixels can be copied back to system memory.
type Readable interface {
	Texture
	ReadPixels() (*image.RGBA, error)
}

// Releaser is implemented by resources that hold host memory.
type Releaser interface {
	Release()
}

// RenderOp is an open render pass on a RenderTarget. End restores the
// previous target.
type RenderOp interface {
	End()
}

// RenderTarget is an offscreen buffer owned by the filter.
type RenderTarget interface {
	Releaser
	// Begin resizes the target to width x height if needed, makes it the
	// current target and applies state. The returned op must be ended.
	Begin(width, height uint32, state DrawState) (RenderOp, error)
	// Texture returns the current contents. It is nil before the first Begin.
	Texture() Texture
}

// Sampler is a texture sampling configuration bound alongside a texture.
type Sampler interface {
	Releaser
	State() SamplerState
}

// Effect is a compiled shader program with named parameters and techniques.
// Parameter setters ignore names the program does not declare; callers that
// must know use HasParameter first.
type Effect interface {
	Releaser
	HasParameter(name string) bool
	SetTexture(name string, tex Texture, sampler Sampler)
	SetFloat(name string, value float32)
	// DrawSprite draws a width x height quad with technique into the
	// current target.
	DrawSprite(technique string, width, height uint32) error
}

// Device creates host resources.
type Device interface {
	CreateRenderTarget(format gputypes.TextureFormat) (RenderTarget, error)
	// CreateTexture uploads pixels laid out row by row in format.
	CreateTexture(width, height uint32, format gputypes.TextureFormat, pixels []byte) (Texture, error)
	CreateSampler(state SamplerState) (Sampler, error)
	// LoadEffect compiles the effect program at path.
	LoadEffect(path string) (Effect, error)
}

// Source is the host side of one filter render call.
type Source interface {
	// TargetSize returns the size of the element the filter draws for.
	// ok is false when the filter currently has no target.
	TargetSize() (width, height uint32, ok bool)
	// BeginCapture prepares the upstream frame for drawing. It returns false
	// when the frame cannot be captured.
	BeginCapture() bool
	// EndCapture draws the upstream frame into the current target.
	EndCapture(width, height uint32)
	// Skip passes the upstream frame through unmodified.
	Skip()
}
