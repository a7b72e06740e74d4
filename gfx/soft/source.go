package soft

import (
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Source is a software gfx.Source feeding a fixed upstream image.
type Source struct {
	dev      *Device
	upstream image.Image

	mu          sync.Mutex
	width       uint32
	height      uint32
	hasTarget   bool
	failCapture bool
	capturing   bool
	captures    int
	skips       int
}

// NewSource creates a source whose target matches the upstream size.
func (d *Device) NewSource(upstream image.Image) *Source {
	b := upstream.Bounds()
	return &Source{
		dev:       d,
		upstream:  upstream,
		width:     uint32(b.Dx()),
		height:    uint32(b.Dy()),
		hasTarget: true,
	}
}

// SetTarget overrides the target size; ok false removes the target.
func (s *Source) SetTarget(width, height uint32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height, s.hasTarget = width, height, ok
}

// FailCapture makes the following BeginCapture calls fail.
func (s *Source) FailCapture(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCapture = fail
}

// Captures returns how many frames were captured.
func (s *Source) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Skips returns how many times the filter passed the frame through.
func (s *Source) Skips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skips
}

func (s *Source) TargetSize() (uint32, uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height, s.hasTarget
}

func (s *Source) BeginCapture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCapture {
		return false
	}
	s.capturing = true
	return true
}

// EndCapture scales the upstream frame onto a width x height quad of the
// current target.
func (s *Source) EndCapture(width, height uint32) {
	s.mu.Lock()
	if !s.capturing {
		s.mu.Unlock()
		return
	}
	s.capturing = false
	s.captures++
	s.mu.Unlock()

	f := s.dev.current()
	xdraw.ApproxBiLinear.Scale(f.img, f.pixelRect(width, height), s.upstream, s.upstream.Bounds(), xdraw.Src, nil)
	s.dev.countDraw()
}

// Skip copies the upstream frame to the current target unmodified.
func (s *Source) Skip() {
	s.mu.Lock()
	s.skips++
	s.capturing = false
	s.mu.Unlock()

	f := s.dev.current()
	xdraw.ApproxBiLinear.Scale(f.img, f.img.Bounds(), s.upstream, s.upstream.Bounds(), xdraw.Src, nil)
}
