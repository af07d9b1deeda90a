// Package server implements the drpc server: a method registry, an
// optional middleware chain around dispatch, and a TCP accept loop that
// serves each connection sequentially — one request at a time.
package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"drpc/codec"
	"drpc/frame"
	"drpc/handler"
	"drpc/metrics"
	"drpc/middleware"
	"drpc/stub"
	"drpc/tracing"
)

// Server registers methods and serves connections using the default
// binary codec unless WithCodec overrides it.
type Server struct {
	registry    *handler.Registry
	codec       codec.Codec
	middlewares []middleware.Middleware
	dispatch    middleware.HandlerFunc
	metrics     *metrics.Metrics

	listener net.Listener
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// New returns an empty Server using the default binary codec.
func New() *Server {
	return &Server{
		registry: handler.NewRegistry(),
		codec:    codec.NewBinaryCodec(),
	}
}

// WithCodec overrides the payload codec used to decode arguments and
// encode results. Must be called before Serve.
func (s *Server) WithCodec(c codec.Codec) *Server {
	s.codec = c
	return s
}

// WithMetrics attaches an optional Prometheus sink observed once per
// dispatched request. A nil sink (the default) disables this, not an error.
func (s *Server) WithMetrics(m *metrics.Metrics) *Server {
	s.metrics = m
	return s
}

// Register installs a dynamic handler under name.
func (s *Server) Register(name string, h handler.Handler) {
	s.registry.Insert(name, h)
}

// RegisterFunc installs a typed function adapter under name.
func RegisterFunc[Arg, Resp any](s *Server, name string, fn func(Arg) (Resp, error)) {
	s.registry.Insert(name, handler.Adapt(fn))
}

// Use registers a middleware. Middlewares run in the order they are added,
// outermost first.
func (s *Server) Use(mw middleware.Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// Serve binds addr, builds the middleware chain, and accepts connections
// forever, spawning one goroutine per accepted connection. Each connection
// is served sequentially: one request is fully dispatched and its response
// written before the next frame is read.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.dispatch = middleware.Chain(s.middlewares...)(s.handle)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	for {
		req, err := frame.Decode(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("drpc: server: decode frame: %v", err)
			}
			return
		}

		resp := s.dispatch(context.Background(), req)

		if _, err := conn.Write(frame.Encode(resp)); err != nil {
			log.Printf("drpc: server: write response: %v", err)
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req *frame.Frame) *frame.Frame {
	method := methodOf(req)

	_, span := tracing.StartServerHandle(ctx, method, req.ID)
	defer span.End()

	resp := stub.Dispatch(req, s.registry, s.codec)
	s.metrics.ObserveRequest(method, resp.OK != 0)
	return resp
}

func methodOf(req *frame.Frame) string {
	if idx := bytes.IndexByte(req.Payload, '\n'); idx >= 0 {
		return string(req.Payload[:idx])
	}
	return "?"
}

// Shutdown stops accepting new connections and waits up to timeout for
// every connection goroutine to return. Open connections are not closed,
// so a connection whose peer stays connected keeps Shutdown waiting until
// the timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shutdown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("drpc: server: timeout waiting for in-flight requests")
	}
}
