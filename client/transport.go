package client

import (
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"drpc/frame"
	"drpc/stub"
)

// connTransport is the default stub.Transport: the connection is held
// exclusively for the duration of one call (§5's "connection mutex"),
// writing the request and then looping reads on the same connection until
// a frame with the matching id arrives, the read fails, or the timeout
// elapses.
//
// Holding the connection mutex for the whole call trivially makes response
// ids unique within any in-flight window and is what makes the id-matching
// read loop correct without a pending-response map.
type connTransport struct {
	conn net.Conn
	mu   sync.Mutex
}

func newConnTransport(conn net.Conn) *connTransport {
	return &connTransport{conn: conn}
}

func (t *connTransport) RoundTrip(req *frame.Frame, timeout time.Duration) *frame.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.conn.Write(frame.Encode(req)); err != nil {
		return errFrame(req.ID, err.Error())
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		_ = t.conn.SetReadDeadline(deadline)
		defer t.conn.SetReadDeadline(time.Time{})
	}

	for {
		resp, err := frame.Decode(t.conn)
		if err != nil {
			if timeout > 0 && errors.Is(err, os.ErrDeadlineExceeded) {
				return errFrame(req.ID, stub.TimeoutMessage)
			}
			return errFrame(req.ID, err.Error())
		}
		if resp.ID != req.ID {
			// A single connection may carry multiple in-flight calls under
			// pipelining; discard and keep reading for our id. Under the
			// single-inflight-per-connection discipline this branch is
			// unreachable but kept for forward compatibility.
			continue
		}
		return resp
	}
}

func errFrame(id uint64, msg string) *frame.Frame {
	return &frame.Frame{ID: id, OK: 0, Payload: []byte(msg)}
}

func (t *connTransport) Close() error {
	return t.conn.Close()
}
