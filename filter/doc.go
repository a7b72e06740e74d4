// Package filter implements the virtual greenscreen video filter.
//
// A Factory probes the registered segmentation providers once and, when at
// least one is available, creates Instances. Each Instance owns one provider
// adapter and replaces it on a background worker whenever the selected
// provider changes:
//
//	f := filter.NewFactory(registry, device, filter.WithMetrics(metrics))
//	f.Start(ctx)
//	inst, _ := f.Create("camera", f.Defaults())
//	defer inst.Close()
//
//	// host render thread
//	inst.Tick(width, height)
//	inst.Render(source)
//
// While a switch is in flight the instance passes frames through. Provider
// output is recomputed at most once per Tick and the last result is
// composited on every Render.
package filter
