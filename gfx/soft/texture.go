package soft

import (
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/kbukum/greenscreen/gfx"
)

// Texture is an image backed gfx.Texture.
type Texture struct {
	img    image.Image
	format gputypes.TextureFormat
}

// NewTexture wraps an RGBA image.
func NewTexture(img *image.RGBA) *Texture {
	return &Texture{img: img, format: gputypes.TextureFormatRGBA8Unorm}
}

func (t *Texture) Width() uint32                  { return uint32(t.img.Bounds().Dx()) }
func (t *Texture) Height() uint32                 { return uint32(t.img.Bounds().Dy()) }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Image returns the backing image without copying.
func (t *Texture) Image() image.Image { return t.img }

// ReadPixels copies the texture into a new RGBA image. Single channel
// textures are expanded to grey.
func (t *Texture) ReadPixels() (*image.RGBA, error) {
	b := t.img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), t.img, b.Min, xdraw.Src)
	return out, nil
}

var _ gfx.Readable = (*Texture)(nil)

// imageOf returns the pixels behind any gfx.Texture the soft host can read.
func imageOf(tex gfx.Texture) image.Image {
	switch t := tex.(type) {
	case nil:
		return nil
	case interface{ Image() image.Image }:
		return t.Image()
	case gfx.Readable:
		img, err := t.ReadPixels()
		if err != nil {
			return nil
		}
		return img
	default:
		return nil
	}
}

// RenderTarget is a software gfx.RenderTarget.
type RenderTarget struct {
	dev    *Device
	format gputypes.TextureFormat
	img    *image.RGBA
	tex    *Texture
}

// Begin makes the target current, reallocating it when the size changes.
func (rt *RenderTarget) Begin(width, height uint32, state gfx.DrawState) (gfx.RenderOp, error) {
	if width == 0 || height == 0 {
		width, height = 1, 1
	}
	if rt.img == nil || rt.img.Bounds().Dx() != int(width) || rt.img.Bounds().Dy() != int(height) {
		rt.img = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		rt.tex = &Texture{img: rt.img, format: rt.format}
	}
	if c := state.Clear; c != nil {
		fill(rt.img, c)
	}
	rt.dev.push(frame{img: rt.img, proj: state.Projection})
	return renderOp{dev: rt.dev}, nil
}

// Texture returns the target contents, nil before the first Begin.
func (rt *RenderTarget) Texture() gfx.Texture {
	if rt.tex == nil {
		return nil
	}
	return rt.tex
}

// Release drops the backing image.
func (rt *RenderTarget) Release() {
	rt.img, rt.tex = nil, nil
}

type renderOp struct {
	dev *Device
}

func (op renderOp) End() { op.dev.pop() }

func fill(img *image.RGBA, c *gfx.Color) {
	px := [4]uint8{unorm(c.R * c.A), unorm(c.G * c.A), unorm(c.B * c.A), unorm(c.A)}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px[:])
	}
}

func unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
