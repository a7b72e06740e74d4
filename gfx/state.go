package gfx

import "github.com/gogpu/gputypes"

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float32
}

// Ortho is an orthographic projection volume.
type Ortho struct {
	Left, Right, Top, Bottom, Near, Far float32
}

// UnitOrtho maps the unit square onto the whole target.
func UnitOrtho() Ortho {
	return Ortho{Right: 1, Bottom: 1, Far: 1}
}

// DrawState is the fixed function state applied while drawing into a
// RenderTarget.
type DrawState struct {
	Projection Ortho
	Blend      bool
	DepthTest  bool
	Stencil    bool
	Cull       gputypes.CullMode
	// Clear is applied when the pass begins. Nil keeps the old contents.
	Clear *Color
}

// CaptureState is the state used to copy an upstream frame into a buffer:
// unit orthographic projection, no blending, no depth or stencil test, no
// culling, cleared to transparent black. The frame is drawn as a 1x1 quad.
func CaptureState() DrawState {
	return DrawState{
		Projection: UnitOrtho(),
		Cull:       gputypes.CullModeNone,
		Clear:      &Color{},
	}
}

// SamplerState describes how a texture is sampled.
type SamplerState struct {
	AddressU  gputypes.AddressMode
	AddressV  gputypes.AddressMode
	MinFilter gputypes.FilterMode
	MagFilter gputypes.FilterMode
}

// ClampLinear returns edge clamped, linearly filtered sampling.
func ClampLinear() SamplerState {
	return SamplerState{
		AddressU:  gputypes.AddressModeClampToEdge,
		AddressV:  gputypes.AddressModeClampToEdge,
		MinFilter: gputypes.FilterModeLinear,
		MagFilter: gputypes.FilterModeLinear,
	}
}
