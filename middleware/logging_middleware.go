package middleware

import (
	"bytes"
	"context"
	"log"
	"time"

	"drpc/frame"
)

// LoggingMiddleware records the method name, duration, and ok status for
// each dispatched request. It captures the start time before calling next
// and logs the elapsed time after next returns.
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *frame.Frame) *frame.Frame {
			start := time.Now()

			resp := next(ctx, req)

			duration := time.Since(start)
			log.Printf("method=%s id=%d duration=%s ok=%d", methodOf(req), req.ID, duration, resp.OK)
			if resp.OK == 0 {
				log.Printf("id=%d error: %s", req.ID, resp.Payload)
			}
			return resp
		}
	}
}

func methodOf(req *frame.Frame) string {
	if idx := bytes.IndexByte(req.Payload, '\n'); idx >= 0 {
		return string(req.Payload[:idx])
	}
	return "?"
}
