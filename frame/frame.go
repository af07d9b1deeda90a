// Package frame implements the wire-level frame codec for drpc.
//
// Every RPC message, request or response, crosses the wire as one frame:
// a fixed 17-byte header followed by exactly len(payload) bytes. The header
// carries the request id used to correlate a response with its request, the
// ok flag distinguishing success from error payloads, and the payload
// length that solves TCP's sticky-packet problem.
//
// Frame format, most-significant byte first:
//
//	0          8  9          17
//	┌──────────┬──┬──────────┬───────────────┐
//	│    id    │ok│   len    │   payload ...  │
//	│  uint64  │u8│  uint64  │   len bytes    │
//	└──────────┴──┴──────────┴───────────────┘
package frame

import (
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/spiral/errors"
)

// HeaderSize is the fixed size of a frame header in bytes: 8 (id) + 1 (ok) + 8 (len).
const HeaderSize = 17

// defaultFrameMaxLen is the default process-wide ceiling on a frame's payload
// length: 10 MiB.
const defaultFrameMaxLen uint64 = 10 * 1024 * 1024

// frameMaxLen is the mutable, process-wide maximum payload length a decode
// will accept. It bounds the reader's allocation; Encode does not check it.
var frameMaxLen atomic.Uint64

func init() {
	frameMaxLen.Store(defaultFrameMaxLen)
}

// SetFrameLen atomically changes the process-wide maximum frame payload
// length. It takes effect on the next Decode call; in-flight decodes are
// unaffected.
func SetFrameLen(n uint64) {
	frameMaxLen.Store(n)
}

// GetFrameLen returns the current process-wide maximum frame payload length.
func GetFrameLen() uint64 {
	return frameMaxLen.Load()
}

// ErrFrameTooLarge is returned by Decode when the advertised payload length
// exceeds the current frame max length.
var ErrFrameTooLarge = errors.Str("frame: payload length exceeds frame max length")

// Frame is a single wire message: a request or a response, never reused.
type Frame struct {
	ID      uint64
	OK      uint8
	Payload []byte
}

// Encode returns a contiguous buffer of length 17+len(f.Payload), with the
// header fields written big-endian and OK copied through unchanged.
func Encode(f *Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))

	binary.BigEndian.PutUint64(buf[0:8], f.ID)
	buf[8] = f.OK
	binary.BigEndian.PutUint64(buf[9:17], uint64(len(f.Payload)))
	copy(buf[HeaderSize:], f.Payload)

	return buf
}

// Decode reads one complete frame (header + payload) from r.
//
// It validates len <= GetFrameLen() before allocating the payload buffer,
// failing with ErrFrameTooLarge if the advertised length is too large. It
// uses io.ReadFull for both the header and the payload so a short read
// surfaces as io.ErrUnexpectedEOF (or io.EOF, for a clean close before any
// bytes of the next frame arrive).
func Decode(r io.Reader) (*Frame, error) {
	const op = errors.Op("frame_decode")

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	id := binary.BigEndian.Uint64(header[0:8])
	ok := header[8]
	length := binary.BigEndian.Uint64(header[9:17])

	if length > frameMaxLen.Load() {
		return nil, errors.E(op, ErrFrameTooLarge)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}

	return &Frame{ID: id, OK: ok, Payload: payload}, nil
}
