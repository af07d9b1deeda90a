// Package stub implements the client and server stubs that bridge typed
// procedure calls to frame I/O.
//
// ClientStub composes a request frame from a method name and pre-encoded
// argument bytes and hands it to a Transport, which performs the actual
// I/O and returns the matching response frame. ServerStub reads frames
// from a connection, dispatches to a handler registry by method name, and
// writes the response frame — sequentially, one request at a time per
// connection, per the canonical concurrency model.
package stub

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/spiral/errors"

	"drpc/codec"
	"drpc/frame"
	"drpc/handler"
)

// Transport performs the I/O for one client call: write the request frame,
// wait for the matching response frame, and return it. A failure to write
// or read is never returned as an error by RoundTrip; it is folded into a
// synthetic response frame with OK=0, per the client stub's contract that
// a call either returns a frame or blocks — never surfaces a raw I/O error
// to the caller directly.
type Transport interface {
	RoundTrip(req *frame.Frame, timeout time.Duration) *frame.Frame
}

// ClientStub assigns request ids and composes request frames.
type ClientStub struct {
	counter atomic.Uint64
}

// NewClientStub returns a ClientStub with its request id counter at zero.
func NewClientStub() *ClientStub {
	return &ClientStub{}
}

// nextID advances the counter, wrapping from the maximum uint64 to zero,
// and returns the new value.
func (s *ClientStub) nextID() uint64 {
	return s.counter.Add(1)
}

// Call composes the request payload (method || 0x0A || argBytes), assigns
// an id, hands the frame to t, and returns whatever frame t produces.
func (s *ClientStub) Call(t Transport, timeout time.Duration, method string, argBytes []byte) *frame.Frame {
	id := s.nextID()

	payload := make([]byte, 0, len(method)+1+len(argBytes))
	payload = append(payload, method...)
	payload = append(payload, '\n')
	payload = append(payload, argBytes...)

	req := &frame.Frame{ID: id, OK: 0, Payload: payload}
	return t.RoundTrip(req, timeout)
}

// ServerStub reads frames from a connection, dispatches to a handler
// registry, and writes responses — one request at a time.
type ServerStub struct{}

// NewServerStub returns a ServerStub. ServerStub carries no state; it can
// be shared across goroutines and connections.
func NewServerStub() *ServerStub {
	return &ServerStub{}
}

// Serve loops: decode one frame, dispatch it, write the response. It
// returns cleanly on io.EOF (the peer closed the connection) and returns
// after logging on any other I/O error. A single request's handler failure
// never terminates the loop; only a frame-decode or write error does.
func (s *ServerStub) Serve(conn net.Conn, reg *handler.Registry, c codec.Codec) {
	for {
		req, err := frame.Decode(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("drpc: server stub: decode frame: %v", err)
			}
			return
		}

		resp := Dispatch(req, reg, c)

		if _, err := conn.Write(frame.Encode(resp)); err != nil {
			log.Printf("drpc: server stub: write response: %v", err)
			return
		}
	}
}

// Dispatch runs one request frame through the method registry: splitting
// the payload at the first 0x0A, looking up the handler by method name,
// invoking it, and building the response frame. It never panics or blocks
// beyond what the handler itself does, so callers (ServerStub.Serve or a
// host's own middleware-wrapped loop) can call it directly per request.
func Dispatch(req *frame.Frame, reg *handler.Registry, c codec.Codec) *frame.Frame {
	idx := bytes.IndexByte(req.Payload, '\n')
	if idx < 0 {
		return errorFrame(req.ID, "invalid request: missing method separator")
	}
	method := string(req.Payload[:idx])
	arg := req.Payload[idx+1:]

	h, ok := reg.Get(method)
	if !ok {
		return errorFrame(req.ID, fmt.Sprintf("method='%s' not find!", method))
	}

	result, err := h.Handle(arg, c)
	if err != nil {
		return errorFrame(req.ID, err.Error())
	}
	return &frame.Frame{ID: req.ID, OK: 1, Payload: result}
}

func errorFrame(id uint64, msg string) *frame.Frame {
	return &frame.Frame{ID: id, OK: 0, Payload: []byte(msg)}
}

// ErrTimeout is the error carried (as UTF-8 payload text, never wrapped) in
// a synthetic response frame when a client call's whole-call timeout
// elapses before a matching response arrives.
var ErrTimeout = errors.Str("rpc call timeout!")

// TimeoutMessage is the literal wire text for a timed-out call.
const TimeoutMessage = "rpc call timeout!"
