package texture

import (
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
)

// InputFormat is the format of the captured input buffer.
const InputFormat = gputypes.TextureFormatRGBA8Unorm

// Cache owns the input render target of one filter instance and the views
// of the most recent provider outputs.
//
// Capture, Reset and Release must be called under the instance's provider
// lock. Outputs may be read without it.
type Cache struct {
	input  gfx.RenderTarget
	width  uint32
	height uint32

	mu    sync.RWMutex
	alpha gfx.Texture
	color gfx.Texture
}

// New creates a Cache with an input render target on dev.
func New(dev gfx.Device) (*Cache, error) {
	rt, err := dev.CreateRenderTarget(InputFormat)
	if err != nil {
		return nil, errors.Internal(err).WithDetail("resource", "input render target")
	}
	return &Cache{input: rt}, nil
}

// Capture draws the upstream frame of src into the input buffer at
// width x height with an isolated draw state. It returns the captured
// texture, or false when the host could not capture the frame.
func (c *Cache) Capture(src gfx.Source, width, height uint32) (gfx.Texture, bool, error) {
	if c.input == nil {
		return nil, false, errors.ResourceMissing("input render target", nil)
	}
	op, err := c.input.Begin(width, height, gfx.CaptureState())
	if err != nil {
		return nil, false, err
	}
	defer op.End()

	if !src.BeginCapture() {
		return nil, false, nil
	}
	// Unit projection: a 1x1 quad covers the whole target.
	src.EndCapture(1, 1)
	c.width, c.height = width, height
	return c.input.Texture(), true, nil
}

// Input returns the last captured frame, nil before the first capture.
func (c *Cache) Input() gfx.Texture {
	if c.input == nil {
		return nil
	}
	return c.input.Texture()
}

// Size returns the dimensions of the last capture.
func (c *Cache) Size() (uint32, uint32) {
	return c.width, c.height
}

// Publish replaces the output views used by the compositor.
func (c *Cache) Publish(alpha, color gfx.Texture) {
	c.mu.Lock()
	c.alpha, c.color = alpha, color
	c.mu.Unlock()
}

// Outputs returns the published alpha and color views. Either may be nil
// before the first successful process.
func (c *Cache) Outputs() (alpha, color gfx.Texture) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alpha, c.color
}

// Reset points both outputs at the input buffer. It is used after a switch
// so no view into a released adapter survives.
func (c *Cache) Reset() {
	in := c.Input()
	c.Publish(in, in)
}

// Release drops the outputs and releases the input buffer.
func (c *Cache) Release() {
	c.Publish(nil, nil)
	if c.input != nil {
		c.input.Release()
		c.input = nil
	}
	c.width, c.height = 0, 0
}
