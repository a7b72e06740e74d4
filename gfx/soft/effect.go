package soft

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/greenscreen/gfx"
)

// ParamKind is the type of an effect parameter.
type ParamKind int

const (
	ParamTexture ParamKind = iota + 1
	ParamFloat
)

// Shader computes the premultiplied output color at normalized sprite
// coordinates (u, v).
type Shader func(p *Params, u, v float32) color.RGBA

// Program is a software effect: declared parameters plus named techniques.
type Program struct {
	Params     map[string]ParamKind
	Techniques map[string]Shader
}

type boundTexture struct {
	img   image.Image
	state gfx.SamplerState
}

// Params holds the values bound to an effect for one draw.
type Params struct {
	textures map[string]boundTexture
	floats   map[string]float32
}

// Float returns a bound float, zero when unset.
func (p *Params) Float(name string) float32 {
	return p.floats[name]
}

// Sample returns the normalized RGBA value of a bound texture at (u, v).
// Unbound textures sample as transparent black.
func (p *Params) Sample(name string, u, v float32) [4]float32 {
	bt, ok := p.textures[name]
	if !ok || bt.img == nil {
		return [4]float32{}
	}
	return sample(bt.img, bt.state, u, v)
}

// Effect is a software gfx.Effect.
type Effect struct {
	dev     *Device
	program Program
	params  Params
}

func newEffect(dev *Device, p Program) *Effect {
	return &Effect{
		dev:     dev,
		program: p,
		params: Params{
			textures: make(map[string]boundTexture),
			floats:   make(map[string]float32),
		},
	}
}

// HasParameter reports whether the program declares name.
func (e *Effect) HasParameter(name string) bool {
	_, ok := e.program.Params[name]
	return ok
}

// SetTexture binds tex to a texture parameter. A nil sampler means clamped
// linear sampling.
func (e *Effect) SetTexture(name string, tex gfx.Texture, sampler gfx.Sampler) {
	if e.program.Params[name] != ParamTexture {
		return
	}
	state := gfx.ClampLinear()
	if sampler != nil {
		state = sampler.State()
	}
	e.params.textures[name] = boundTexture{img: imageOf(tex), state: state}
}

// SetFloat binds a float parameter.
func (e *Effect) SetFloat(name string, value float32) {
	if e.program.Params[name] != ParamFloat {
		return
	}
	e.params.floats[name] = value
}

// DrawSprite runs technique over a width x height quad in the current target.
func (e *Effect) DrawSprite(technique string, width, height uint32) error {
	shader, ok := e.program.Techniques[technique]
	if !ok {
		return fmt.Errorf("soft: unknown technique %q", technique)
	}
	f := e.dev.current()
	r := f.pixelRect(width, height)
	w, h := float32(r.Dx()), float32(r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			u := (float32(x-r.Min.X) + 0.5) / w
			v := (float32(y-r.Min.Y) + 0.5) / h
			f.img.SetRGBA(x, y, shader(&e.params, u, v))
		}
	}
	e.dev.countDraw()
	return nil
}

// Release is a no-op.
func (e *Effect) Release() {}

// sample reads img at normalized (u, v). Coordinates are clamped to the
// edge; linear filtering interpolates the four nearest texels.
func sample(img image.Image, state gfx.SamplerState, u, v float32) [4]float32 {
	b := img.Bounds()
	fx := float64(u)*float64(b.Dx()) - 0.5
	fy := float64(v)*float64(b.Dy()) - 0.5

	if state.MagFilter != gputypes.FilterModeLinear {
		return texel(img, b, int(math.Round(fx)), int(math.Round(fy)))
	}

	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := float32(fx-x0), float32(fy-y0)
	c00 := texel(img, b, int(x0), int(y0))
	c10 := texel(img, b, int(x0)+1, int(y0))
	c01 := texel(img, b, int(x0), int(y0)+1)
	c11 := texel(img, b, int(x0)+1, int(y0)+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

func texel(img image.Image, b image.Rectangle, x, y int) [4]float32 {
	x = clamp(x, 0, b.Dx()-1) + b.Min.X
	y = clamp(y, 0, b.Dy()-1) + b.Min.Y
	switch m := img.(type) {
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return [4]float32{
			float32(m.Pix[i]) / 255, float32(m.Pix[i+1]) / 255,
			float32(m.Pix[i+2]) / 255, float32(m.Pix[i+3]) / 255,
		}
	case *image.Gray:
		g := float32(m.GrayAt(x, y).Y) / 255
		return [4]float32{g, g, g, 1}
	default:
		r, g, bl, a := img.At(x, y).RGBA()
		return [4]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(bl) / 0xffff, float32(a) / 0xffff}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
