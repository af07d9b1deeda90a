// Package handler implements the method registry and the typed-function
// adapter that bridges a Go function to the dynamic-dispatch shape the
// server stub requires.
package handler

import (
	"sync"

	"github.com/spiral/errors"

	"drpc/codec"
)

// Handler is the dynamic-dispatch contract every registered method
// ultimately implements: given the raw argument bytes of a request and the
// codec shared by the connection, produce the raw response bytes or an
// error whose text becomes the wire-level error message.
type Handler interface {
	Handle(payload []byte, c codec.Codec) ([]byte, error)
}

// Func adapts a plain function to Handler.
type Func func(payload []byte, c codec.Codec) ([]byte, error)

func (f Func) Handle(payload []byte, c codec.Codec) ([]byte, error) {
	return f(payload, c)
}

// Registry is a concurrent mapping from method name to Handler. Inserts and
// lookups are safe to call concurrently, including while a server is
// actively serving connections.
type Registry struct {
	entries sync.Map // map[string]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Insert installs h under name, replacing any previous handler for the same
// name (last-writer-wins).
func (r *Registry) Insert(name string, h Handler) {
	r.entries.Store(name, h)
}

// Get returns the handler registered under name, if any.
func (r *Registry) Get(name string) (Handler, bool) {
	v, ok := r.entries.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Handler), true
}

// Adapt wraps a typed function Arg -> (Resp, error) into a Handler by
// decoding Arg via codec, invoking fn, and encoding Resp via codec. Decode
// or encode failures surface as handler errors with descriptive text, per
// the same convention as a failing fn.
func Adapt[Arg, Resp any](fn func(arg Arg) (Resp, error)) Handler {
	return Func(func(payload []byte, c codec.Codec) ([]byte, error) {
		const op = errors.Op("handler_adapt")

		var arg Arg
		if err := c.Decode(payload, &arg); err != nil {
			return nil, errors.E(op, errors.Str("decode argument: "+err.Error()))
		}

		resp, err := fn(arg)
		if err != nil {
			return nil, err
		}

		out, err := c.Encode(resp)
		if err != nil {
			return nil, errors.E(op, errors.Str("encode response: "+err.Error()))
		}
		return out, nil
	})
}
