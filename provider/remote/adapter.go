package remote

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/gfx"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/provider"
	"github.com/kbukum/greenscreen/resilience"
	"github.com/kbukum/greenscreen/version"
)

// Kind is the provider kind of the remote service.
const Kind provider.Kind = "remote"

// DisplayName is shown in the provider selector.
const DisplayName = "Remote Segmentation Service"

// SegmentPath is the processing endpoint, relative to Config.Endpoint.
const SegmentPath = "/v1/segment"

// maxResponseBytes bounds the decoded response body.
const maxResponseBytes = 64 << 20

// Adapter is the provider.Adapter of the remote service.
type Adapter struct {
	cfg Config
	dev gfx.Device
	log *logger.Logger

	mu      sync.Mutex
	client  *http.Client
	breaker *resilience.Breaker
	mode    provider.Mode
	width   uint32
	height  uint32
	alpha   gfx.Texture
	color   gfx.Texture
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates an unloaded adapter that uploads textures created on dev.
func New(cfg Config, dev gfx.Device, log *logger.Logger) *Adapter {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("remote")
	}
	return &Adapter{cfg: cfg, dev: dev, log: log}
}

// Load prepares the HTTP client and circuit breaker.
func (a *Adapter) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.LoadFailed(string(Kind), err)
	}
	if a.cfg.Endpoint == "" {
		return errors.LoadFailed(string(Kind), fmt.Errorf("endpoint not configured"))
	}
	if _, err := url.ParseRequestURI(a.cfg.Endpoint); err != nil {
		return errors.LoadFailed(string(Kind), err)
	}

	breakerCfg := a.cfg.Breaker
	breakerCfg.OnTransition = func(name string, from, to resilience.State) {
		a.log.Warn("segmentation breaker moved", logger.Fields(
			logger.FieldProvider, name,
			logger.FieldFrom, from.String(),
			logger.FieldTo, to.String(),
		))
	}

	client, err := a.cfg.HTTPClient()
	if err != nil {
		return errors.LoadFailed(string(Kind), err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = client
	a.breaker = resilience.NewBreaker(breakerCfg)
	return nil
}

// Unload drops the client and the provider-owned textures.
func (a *Adapter) Unload() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		a.client.CloseIdleConnections()
	}
	a.client, a.breaker = nil, nil
	release(a.alpha)
	release(a.color)
	a.alpha, a.color = nil, nil
}

// Resize records the size requested from the service.
func (a *Adapter) Resize(width, height uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return
	}
	a.width, a.height = width, height
}

// Configure records the processing mode.
func (a *Adapter) Configure(opts provider.Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return
	}
	a.mode = opts.Mode
}

// Process uploads input and returns the mask and color textures of the
// answer. The textures stay owned by the adapter.
func (a *Adapter) Process(ctx context.Context, input gfx.Texture) (gfx.Texture, gfx.Texture, error) {
	a.mu.Lock()
	client, breaker := a.client, a.breaker
	mode, width, height := a.mode, a.width, a.height
	a.mu.Unlock()

	if client == nil {
		return nil, nil, errors.NotLoaded(string(Kind))
	}
	readable, ok := input.(gfx.Readable)
	if !ok {
		return nil, nil, errors.ProcessFailed(string(Kind), fmt.Errorf("input texture is not readable"))
	}
	if width == 0 || height == 0 {
		width, height = input.Width(), input.Height()
	}

	var result image.Image
	err := breaker.Do(func() error {
		img, err := a.segment(ctx, client, readable, mode, width, height)
		result = img
		return err
	})
	if err != nil {
		return nil, nil, errors.ProcessFailed(string(Kind), err)
	}

	alpha, color, err := a.upload(result)
	if err != nil {
		return nil, nil, errors.ProcessFailed(string(Kind), err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		// Unloaded while the request was in flight.
		release(alpha)
		release(color)
		return nil, nil, errors.NotLoaded(string(Kind))
	}
	release(a.alpha)
	release(a.color)
	a.alpha, a.color = alpha, color
	return alpha, color, nil
}

func (a *Adapter) segment(ctx context.Context, client *http.Client, input gfx.Readable, mode provider.Mode, width, height uint32) (image.Image, error) {
	pixels, err := input.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var body bytes.Buffer
	if err := png.Encode(&body, pixels); err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	q := url.Values{}
	q.Set("mode", mode.String())
	q.Set("width", strconv.FormatUint(uint64(width), 10))
	q.Set("height", strconv.FormatUint(uint64(height), 10))
	endpoint := strings.TrimRight(a.cfg.Endpoint, "/") + SegmentPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segment: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	img, err := png.Decode(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return img, nil
}

// upload splits img into an opaque RGBA color texture and an R8 mask.
func (a *Adapter) upload(img image.Image) (gfx.Texture, gfx.Texture, error) {
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		b := img.Bounds()
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}

	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	colorPx := make([]byte, 0, w*h*4)
	maskPx := make([]byte, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := nrgba.Pix[nrgba.PixOffset(b.Min.X, y):][:w*4]
		for i := 0; i < len(row); i += 4 {
			colorPx = append(colorPx, row[i], row[i+1], row[i+2], 0xff)
			maskPx = append(maskPx, row[i+3])
		}
	}

	color, err := a.dev.CreateTexture(uint32(w), uint32(h), gputypes.TextureFormatRGBA8Unorm, colorPx)
	if err != nil {
		return nil, nil, err
	}
	alpha, err := a.dev.CreateTexture(uint32(w), uint32(h), gputypes.TextureFormatR8Unorm, maskPx)
	if err != nil {
		release(color)
		return nil, nil, err
	}
	return alpha, color, nil
}

func release(tex gfx.Texture) {
	if r, ok := tex.(gfx.Releaser); ok {
		r.Release()
	}
}
