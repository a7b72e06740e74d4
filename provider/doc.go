// Package provider defines the segmentation provider contract and the
// registry that tracks which providers exist on this machine.
//
// An Adapter wraps one provider: it loads the provider's runtime, resizes
// its working buffers, and turns an input texture into an alpha mask plus a
// color texture. Adapters are created by a Factory registered under a Kind:
//
//	reg := provider.NewRegistry(
//	    provider.WithMiddleware(
//	        provider.WithLogging(log),
//	        provider.WithMetrics(metrics),
//	        provider.WithTracing("greenscreen"),
//	    ),
//	)
//	reg.Register(provider.Registration{Kind: "remote", Priority: 10, Probe: probe, Factory: factory})
//	reg.Probe(ctx)
//	kind := reg.Resolve(provider.Automatic)
//
// Probing never fails; an unavailable provider is logged and excluded from
// selection. The Automatic kind resolves through a Selector, by default the
// highest priority available provider.
package provider
