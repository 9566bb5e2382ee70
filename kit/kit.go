// Package kit provides transport-agnostic endpoint plumbing: an Endpoint is
// a request/response function, middleware wraps endpoints, and adapters bind
// them to concrete transports (MCP tools here, HTTP handlers in cmd/pulse).
package kit

import "context"

// Endpoint is one request/response operation.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first argument is the outermost.
func Chain(outer Middleware, rest ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(rest) - 1; i >= 0; i-- {
			next = rest[i](next)
		}
		return outer(next)
	}
}
