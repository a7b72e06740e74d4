// Package gfx is the boundary between the filter and the host rendering
// engine. The host supplies a Device for resource creation and a Source per
// render call; the filter never talks to a GPU API directly.
//
// Package soft implements these interfaces on image.RGBA buffers. It is used
// by tests and by the command line tool to run the pipeline without a GPU.
package gfx
