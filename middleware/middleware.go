// Package middleware implements an onion-model middleware chain around the
// server's per-request dispatch.
//
// Middleware wraps the dispatch step (request frame in, response frame out)
// to add cross-cutting concerns without modifying dispatch itself.
//
// Onion model execution order:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Request:   A.before → B.before → C.before → handler
//	Response:  handler → C.after → B.after → A.after
package middleware

import (
	"context"

	"drpc/frame"
)

// HandlerFunc is the function signature for a per-request dispatch step:
// a request frame in, a response frame out.
type HandlerFunc func(ctx context.Context, req *frame.Frame) *frame.Frame

// Middleware takes a handler and returns a new handler that wraps it.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes multiple middlewares into one, with the first middleware
// in the list as the outermost layer.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
