package codec

import "testing"

type sample struct {
	Name  string
	Value int
}

func TestBinaryCodecRoundTrip(t *testing.T) {
	c := NewBinaryCodec()
	in := sample{Name: "handle", Value: 42}

	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out sample
	if err := c.Decode(b, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := NewJSONCodec()
	in := sample{Name: "ping", Value: 7}

	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out sample
	if err := c.Decode(b, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestBinaryCodecInt(t *testing.T) {
	c := NewBinaryCodec()
	b, err := c.Encode(1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out int
	if err := c.Decode(b, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != 1 {
		t.Fatalf("got %d, want 1", out)
	}
}

func TestJSONCodecDecodeError(t *testing.T) {
	c := NewJSONCodec()
	var out sample
	if err := c.Decode([]byte("not json"), &out); err == nil {
		t.Fatal("expected decode error for invalid JSON")
	}
}

func BenchmarkBinaryCodecRoundTrip(b *testing.B) {
	c := NewBinaryCodec()
	in := sample{Name: "Arith.Add", Value: 42}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, _ := c.Encode(in)
		var out sample
		_ = c.Decode(data, &out)
	}
}

func BenchmarkJSONCodecRoundTrip(b *testing.B) {
	c := NewJSONCodec()
	in := sample{Name: "Arith.Add", Value: 42}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, _ := c.Encode(in)
		var out sample
		_ = c.Decode(data, &out)
	}
}
