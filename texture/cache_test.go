package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/gfx/soft"
)

func upstream(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCaptureScalesUpstream(t *testing.T) {
	dev := soft.NewDevice()
	c, err := New(dev)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Input() != nil {
		t.Error("input should be nil before the first capture")
	}

	red := color.RGBA{255, 0, 0, 255}
	src := dev.NewSource(upstream(8, 8, red))
	tex, ok, err := c.Capture(src, 4, 2)
	if err != nil || !ok {
		t.Fatalf("Capture = %v, %v", ok, err)
	}
	if tex.Width() != 4 || tex.Height() != 2 || tex.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("captured %dx%d %v", tex.Width(), tex.Height(), tex.Format())
	}
	px, _ := tex.(gfx.Readable).ReadPixels()
	if got := px.RGBAAt(3, 1); got != red {
		t.Errorf("pixel = %v, want %v", got, red)
	}
	if w, h := c.Size(); w != 4 || h != 2 {
		t.Errorf("Size = %dx%d", w, h)
	}
	if src.Captures() != 1 {
		t.Errorf("Captures = %d", src.Captures())
	}
}

func TestCaptureFailure(t *testing.T) {
	dev := soft.NewDevice()
	c, _ := New(dev)
	src := dev.NewSource(upstream(2, 2, color.RGBA{A: 255}))
	src.FailCapture(true)

	tex, ok, err := c.Capture(src, 2, 2)
	if err != nil || ok || tex != nil {
		t.Errorf("Capture = %v, %v, %v; want nil, false, nil", tex, ok, err)
	}
	if w, h := c.Size(); w != 0 || h != 0 {
		t.Errorf("size changed on failed capture: %dx%d", w, h)
	}
}

func TestPublishAndReset(t *testing.T) {
	dev := soft.NewDevice()
	c, _ := New(dev)
	if a, col := c.Outputs(); a != nil || col != nil {
		t.Error("outputs should start empty")
	}

	src := dev.NewSource(upstream(2, 2, color.RGBA{G: 255, A: 255}))
	in, _, _ := c.Capture(src, 2, 2)

	mask, _ := dev.CreateTexture(2, 2, gputypes.TextureFormatR8Unorm, make([]byte, 4))
	c.Publish(mask, in)
	if a, col := c.Outputs(); a != mask || col != in {
		t.Error("Publish did not replace outputs")
	}

	c.Reset()
	if a, col := c.Outputs(); a != in || col != in {
		t.Error("Reset should point outputs at the input buffer")
	}
}

func TestRelease(t *testing.T) {
	dev := soft.NewDevice()
	c, _ := New(dev)
	src := dev.NewSource(upstream(2, 2, color.RGBA{A: 255}))
	c.Capture(src, 2, 2)
	c.Reset()

	c.Release()
	if a, col := c.Outputs(); a != nil || col != nil {
		t.Error("outputs survive Release")
	}
	if c.Input() != nil {
		t.Error("input survives Release")
	}
	if _, _, err := c.Capture(src, 2, 2); err == nil {
		t.Error("Capture after Release should fail")
	}
	c.Release()
}

type failingDevice struct{ soft.Device }

func (*failingDevice) CreateRenderTarget(gputypes.TextureFormat) (gfx.RenderTarget, error) {
	return nil, image.ErrFormat
}

func TestNewFailure(t *testing.T) {
	if _, err := New(&failingDevice{}); err == nil {
		t.Error("expected error")
	}
}
