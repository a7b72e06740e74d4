package provider

import (
	"context"

	"github.com/kbukum/greenscreen/gfx"
)

// Adapter wraps exactly one segmentation provider.
//
// Load may fail when the provider's runtime or hardware is missing. Unload is
// idempotent. Resize and Configure are no-ops until Load has succeeded.
// Process must only be called between a successful Load and the next Unload.
// The returned textures may be owned by the adapter; callers hold a borrowed
// view that stays valid until the next Process or Unload.
type Adapter interface {
	Load(ctx context.Context) error
	Unload()
	Resize(width, height uint32)
	Process(ctx context.Context, input gfx.Texture) (alpha, color gfx.Texture, err error)
	Configure(opts Options)
}

// Factory creates a fresh, unloaded adapter.
type Factory func() (Adapter, error)

// ProbeFunc reports whether a provider can run on this machine. A nil error
// means available.
type ProbeFunc func(ctx context.Context) error
