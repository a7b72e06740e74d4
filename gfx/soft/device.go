package soft

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
)

// Stats counts what a Device has been asked to do.
type Stats struct {
	TargetsCreated  int
	TexturesCreated int
	EffectsLoaded   int
	Passes          int
	Draws           int
}

type frame struct {
	img  *image.RGBA
	proj gfx.Ortho
}

// pixelRect maps a width x height quad at the origin through the frame
// projection onto image pixels.
func (f frame) pixelRect(width, height uint32) image.Rectangle {
	b := f.img.Bounds()
	sx := float64(b.Dx()) / float64(f.proj.Right-f.proj.Left)
	sy := float64(b.Dy()) / float64(f.proj.Bottom-f.proj.Top)
	r := image.Rect(0, 0, int(math.Round(float64(width)*sx)), int(math.Round(float64(height)*sy)))
	return r.Add(b.Min).Intersect(b)
}

// Device is a software gfx.Device. It is safe for concurrent use.
type Device struct {
	mu          sync.Mutex
	framebuffer *image.RGBA
	stack       []frame
	programs    map[string]Program
	stats       Stats
}

// NewDevice creates a device with the built-in programs registered and a
// 1x1 framebuffer.
func NewDevice() *Device {
	d := &Device{
		framebuffer: image.NewRGBA(image.Rect(0, 0, 1, 1)),
		programs:    make(map[string]Program),
	}
	d.RegisterProgram(GreenscreenEffectName, GreenscreenProgram())
	return d
}

// RegisterProgram makes p loadable under the effect file name.
func (d *Device) RegisterProgram(name string, p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs[name] = p
}

// BeginFrame replaces the framebuffer with a cleared width x height image.
func (d *Device) BeginFrame(width, height uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.framebuffer = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	d.stack = d.stack[:0]
}

// Framebuffer returns the output of the current frame.
func (d *Device) Framebuffer() *image.RGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffer
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) current() frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentLocked()
}

func (d *Device) currentLocked() frame {
	if n := len(d.stack); n > 0 {
		return d.stack[n-1]
	}
	b := d.framebuffer.Bounds()
	return frame{img: d.framebuffer, proj: gfx.Ortho{Right: float32(b.Dx()), Bottom: float32(b.Dy()), Far: 1}}
}

func (d *Device) push(f frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stack = append(d.stack, f)
	d.stats.Passes++
}

func (d *Device) pop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.stack); n > 0 {
		d.stack = d.stack[:n-1]
	}
}

func (d *Device) countDraw() {
	d.mu.Lock()
	d.stats.Draws++
	d.mu.Unlock()
}

// CreateRenderTarget creates an empty render target.
func (d *Device) CreateRenderTarget(format gputypes.TextureFormat) (gfx.RenderTarget, error) {
	if format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("soft: unsupported render target format %v", format)
	}
	d.mu.Lock()
	d.stats.TargetsCreated++
	d.mu.Unlock()
	return &RenderTarget{dev: d, format: format}, nil
}

// CreateTexture uploads pixels into a new texture. RGBA8, BGRA8 and R8
// formats are supported.
func (d *Device) CreateTexture(width, height uint32, format gputypes.TextureFormat, pixels []byte) (gfx.Texture, error) {
	w, h := int(width), int(height)
	rect := image.Rect(0, 0, w, h)

	var tex *Texture
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		if len(pixels) != w*h*4 {
			return nil, fmt.Errorf("soft: expected %d bytes, got %d", w*h*4, len(pixels))
		}
		img := image.NewRGBA(rect)
		copy(img.Pix, pixels)
		if format == gputypes.TextureFormatBGRA8Unorm {
			for i := 0; i < len(img.Pix); i += 4 {
				img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
			}
		}
		tex = &Texture{img: img, format: gputypes.TextureFormatRGBA8Unorm}
	case gputypes.TextureFormatR8Unorm:
		if len(pixels) != w*h {
			return nil, fmt.Errorf("soft: expected %d bytes, got %d", w*h, len(pixels))
		}
		img := image.NewGray(rect)
		copy(img.Pix, pixels)
		tex = &Texture{img: img, format: format}
	default:
		return nil, fmt.Errorf("soft: unsupported texture format %v", format)
	}

	d.mu.Lock()
	d.stats.TexturesCreated++
	d.mu.Unlock()
	return tex, nil
}

// CreateSampler creates a sampler with the given state.
func (d *Device) CreateSampler(state gfx.SamplerState) (gfx.Sampler, error) {
	return &Sampler{state: state}, nil
}

// LoadEffect resolves a registered program by the base name of path.
func (d *Device) LoadEffect(path string) (gfx.Effect, error) {
	name := filepath.Base(path)
	d.mu.Lock()
	p, ok := d.programs[name]
	d.mu.Unlock()
	if !ok {
		return nil, errors.ResourceMissing(path, os.ErrNotExist)
	}

	d.mu.Lock()
	d.stats.EffectsLoaded++
	d.mu.Unlock()
	return newEffect(d, p), nil
}

// Sampler is a software gfx.Sampler.
type Sampler struct {
	state gfx.SamplerState
}

// State returns the sampling configuration.
func (s *Sampler) State() gfx.SamplerState { return s.state }

// Release is a no-op.
func (s *Sampler) Release() {}

var (
	_ gfx.Device       = (*Device)(nil)
	_ gfx.RenderTarget = (*RenderTarget)(nil)
	_ gfx.Effect       = (*Effect)(nil)
	_ gfx.Source       = (*Source)(nil)
)
