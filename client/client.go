// Package client implements the drpc client: dialing an address, composing
// and sending typed calls, and tearing down the connection.
//
// Client is deliberately single-address; service discovery and load
// balancing across many addresses for a service live one layer up, in
// package balancer.
package client

import (
	"context"
	"net"
	"time"

	"github.com/spiral/errors"

	"drpc/codec"
	"drpc/metrics"
	"drpc/stub"
	"drpc/tracing"
)

// Client is a single-address RPC endpoint: a remote address, a payload
// codec, client stub state, and a connection handle. It is created by
// Dial and destroyed by Shutdown.
type Client struct {
	addr      string
	codec     codec.Codec
	stub      *stub.ClientStub
	transport *connTransport
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// Dial opens a TCP connection to addr and wraps it in a Client using the
// default binary codec and no call timeout.
func Dial(addr string) (*Client, error) {
	const op = errors.Op("client_dial")

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.E(op, err)
	}

	return &Client{
		addr:      addr,
		codec:     codec.NewBinaryCodec(),
		stub:      stub.NewClientStub(),
		transport: newConnTransport(conn),
	}, nil
}

// WithTimeout sets the whole-call timeout and returns the client for
// chaining.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithCodec overrides the payload codec and returns the client for
// chaining. Must be called before any call if the server expects a
// non-default codec.
func (c *Client) WithCodec(cd codec.Codec) *Client {
	c.codec = cd
	return c
}

// WithMetrics attaches an optional Prometheus sink observed once per Call.
// A nil sink (the default) disables this, not an error.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Addr returns the remote address this client is connected to. It
// satisfies loadbalance.Client.
func (c *Client) Addr() string {
	return c.addr
}

// Shutdown closes the underlying connection. A Client is not usable after
// Shutdown returns.
func (c *Client) Shutdown() error {
	return c.transport.Close()
}

// Call assigns a request id, sends method(arg) to the client's connection,
// and decodes the response as Resp. If the response carries ok=0, the
// payload is a UTF-8 message and Call fails with that message.
func Call[Arg, Resp any](c *Client, method string, arg Arg) (Resp, error) {
	const op = errors.Op("client_call")

	var zero Resp

	_, span, _ := tracing.StartClientCall(context.Background(), method)
	defer span.End()

	start := time.Now()
	defer func() { c.metrics.ObserveCall(time.Since(start)) }()

	argBytes, err := c.codec.Encode(arg)
	if err != nil {
		return zero, errors.E(op, err)
	}

	resp := c.stub.Call(c.transport, c.timeout, method, argBytes)

	if resp.OK == 0 {
		return zero, errors.E(op, errors.Str(string(resp.Payload)))
	}

	var out Resp
	if err := c.codec.Decode(resp.Payload, &out); err != nil {
		return zero, errors.E(op, err)
	}
	return out, nil
}
