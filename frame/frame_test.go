package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		id      uint64
		ok      uint8
		payload []byte
	}{
		{"empty payload", 1, 1, nil},
		{"small payload", 42, 0, []byte("rpc call timeout!")},
		{"ok success", 9999, 1, []byte{1, 0, 0, 0}},
		{"wrapped id", 0, 1, []byte("x")},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &Frame{ID: c.id, OK: c.ok, Payload: c.payload}
			buf := Encode(f)

			got, err := Decode(bytes.NewReader(buf))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.ID != c.id || got.OK != c.ok || !bytes.Equal(got.Payload, c.payload) {
				t.Fatalf("round trip mismatch: got %+v, want id=%d ok=%d payload=%v", got, c.id, c.ok, c.payload)
			}
		})
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	f := &Frame{ID: 1, OK: 1, Payload: []byte{2, 0, 0, 0}}
	buf := Encode(f)
	if len(buf) != HeaderSize+4 {
		t.Fatalf("expected %d bytes, got %d", HeaderSize+4, len(buf))
	}
	if buf[8] != 1 {
		t.Fatalf("ok byte at offset 8 = %d, want 1", buf[8])
	}
}

func TestDecodeOversizeFrameRejected(t *testing.T) {
	old := GetFrameLen()
	defer SetFrameLen(old)
	SetFrameLen(1024)

	f := &Frame{ID: 1, OK: 1, Payload: make([]byte, 2048)}
	buf := Encode(f)

	_, err := Decode(bytes.NewReader(buf))
	if err == nil {
		t.Fatal("expected oversize frame to be rejected")
	}
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error decoding truncated header")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	f := &Frame{ID: 1, OK: 1, Payload: []byte("hello")}
	buf := Encode(f)
	_, err := Decode(bytes.NewReader(buf[:HeaderSize+2]))
	if err == nil {
		t.Fatal("expected error decoding truncated payload")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestSetGetFrameLen(t *testing.T) {
	old := GetFrameLen()
	defer SetFrameLen(old)

	SetFrameLen(4096)
	if got := GetFrameLen(); got != 4096 {
		t.Fatalf("GetFrameLen() = %d, want 4096", got)
	}
}
