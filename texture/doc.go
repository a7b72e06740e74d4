// Package texture holds the per-instance buffers of the greenscreen filter:
// the captured input frame and the last published color and alpha outputs.
//
// The input buffer is owned by the Cache. Published outputs are borrowed
// views, usually owned by the provider adapter that produced them, and stay
// valid until the next Publish or Reset.
package texture
