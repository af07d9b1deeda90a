// Package metrics is an optional Prometheus sink for request counts and
// call latency. A nil *Metrics is a valid zero value: every exported method
// is nil-receiver safe, so packages that accept a *Metrics never need to
// branch on whether one was configured.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors registered against one Prometheus registry.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	callDuration  prometheus.Histogram
}

// New registers drpc_requests_total and drpc_call_duration_seconds against
// reg and returns a Metrics wrapping them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drpc_requests_total",
			Help: "Total dispatched requests, by method and outcome.",
		}, []string{"method", "ok"}),
		callDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drpc_call_duration_seconds",
			Help:    "Client call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.requestsTotal, m.callDuration)
	return m
}

// ObserveRequest records one server-side dispatch outcome.
func (m *Metrics) ObserveRequest(method string, ok bool) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.FormatBool(ok)).Inc()
}

// ObserveCall records one client-side call's wall time.
func (m *Metrics) ObserveCall(d time.Duration) {
	if m == nil {
		return
	}
	m.callDuration.Observe(d.Seconds())
}
