// Package soft is a software implementation of the gfx host interfaces.
//
// Textures and render targets are image.RGBA (or image.Gray for single
// channel formats) buffers; effects are Go fragment functions registered by
// file name. A Device keeps a framebuffer standing in for the host output
// and a stack of active render targets.
//
//	dev := soft.NewDevice()
//	dev.BeginFrame(1280, 720)
//	src := dev.NewSource(upstreamImage)
//	instance.Render(ctx, src)
//	out := dev.Framebuffer()
package soft
