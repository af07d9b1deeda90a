package middleware

import (
	"context"
	"time"

	"drpc/frame"
)

// TimeOutMiddleware enforces a maximum duration for each dispatched
// request, on the server side. If the handler doesn't complete within the
// timeout, it returns an ok=0 frame immediately; the handler goroutine is
// not cancelled, it is only abandoned.
//
// This is a server-side affordance, distinct from the client stub's
// whole-call timeout (§4.C), which bounds the client's wait for a response.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *frame.Frame) *frame.Frame {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *frame.Frame, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return &frame.Frame{ID: req.ID, OK: 0, Payload: []byte("request timed out")}
			}
		}
	}
}
