package provider

// Middleware wraps an adapter of the given kind, typically delegating to it
// while adding cross-cutting behavior (logging, metrics, tracing).
type Middleware func(kind Kind, inner Adapter) Adapter

// Chain composes multiple middlewares into one. The first middleware is
// outermost.
//
// Chain(a, b, c)(kind, adapter) is equivalent to a(kind, b(kind, c(kind, adapter))).
func Chain(middlewares ...Middleware) Middleware {
	return func(kind Kind, inner Adapter) Adapter {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](kind, inner)
		}
		return inner
	}
}
