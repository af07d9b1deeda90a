package middleware

import (
	"context"
	"testing"
	"time"

	"drpc/frame"
)

func echoHandler(ctx context.Context, req *frame.Frame) *frame.Frame {
	return &frame.Frame{ID: req.ID, OK: 1, Payload: []byte("ok")}
}

func slowHandler(ctx context.Context, req *frame.Frame) *frame.Frame {
	time.Sleep(200 * time.Millisecond)
	return &frame.Frame{ID: req.ID, OK: 1, Payload: []byte("ok")}
}

func TestLogging(t *testing.T) {
	h := LoggingMiddleware()(echoHandler)

	req := &frame.Frame{ID: 1, Payload: []byte("Arith.Add\n")}
	resp := h(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if string(resp.Payload) != "ok" {
		t.Fatalf("expect payload 'ok', got '%s'", resp.Payload)
	}
}

func TestTimeoutPass(t *testing.T) {
	h := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	req := &frame.Frame{ID: 1, Payload: []byte("Arith.Add\n")}
	resp := h(context.Background(), req)

	if resp.OK != 1 {
		t.Fatalf("expect ok=1, got %d", resp.OK)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	h := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	req := &frame.Frame{ID: 1, Payload: []byte("Arith.Add\n")}
	resp := h(context.Background(), req)

	if resp.OK != 0 || string(resp.Payload) != "request timed out" {
		t.Fatalf("expect timeout error, got ok=%d payload=%q", resp.OK, resp.Payload)
	}
}

func TestChain(t *testing.T) {
	chained := Chain(LoggingMiddleware(), TimeOutMiddleware(500*time.Millisecond))
	h := chained(echoHandler)

	req := &frame.Frame{ID: 1, Payload: []byte("Arith.Add\n")}
	resp := h(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if resp.OK != 1 {
		t.Fatalf("expect ok=1, got %d", resp.OK)
	}
}
