package client

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client's prometheus collectors. All Record methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	emits           *prometheus.CounterVec
	emitsDropped    *prometheus.CounterVec
	pushes          *prometheus.CounterVec
	invalidPushes   *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
	reconnects      prometheus.Counter
	heartbeats      prometheus.Counter
	requestDuration *prometheus.HistogramVec
	connected       prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		emits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yacs_client_emits_total",
			Help: "Events emitted over the connection",
		}, []string{"event"}),
		emitsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yacs_client_emits_dropped_total",
			Help: "Emits dropped because the connection was down",
		}, []string{"event"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yacs_client_pushes_total",
			Help: "Server-pushed events received",
		}, []string{"event"}),
		invalidPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yacs_client_invalid_pushes_total",
			Help: "Pushes dropped because the payload failed validation",
		}, []string{"event"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yacs_client_stale_responses_total",
			Help: "Responses discarded because the channel changed while in flight",
		}, []string{"kind"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yacs_client_reconnects_total",
			Help: "Successful reconnects after a dropped connection",
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yacs_client_heartbeats_total",
			Help: "Heartbeats emitted",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yacs_client_request_duration_seconds",
			Help:    "HTTP request latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yacs_client_connected",
			Help: "1 while the persistent connection is up",
		}),
	}

	m.registry.MustRegister(
		m.emits,
		m.emitsDropped,
		m.pushes,
		m.invalidPushes,
		m.staleResponses,
		m.reconnects,
		m.heartbeats,
		m.requestDuration,
		m.connected,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordEmit(event string) {
	if m == nil {
		return
	}
	m.emits.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordEmitDropped(event string) {
	if m == nil {
		return
	}
	m.emitsDropped.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordPush(event string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordInvalidPush(event string) {
	if m == nil {
		return
	}
	m.invalidPushes.WithLabelValues(event).Inc()
}

// RecordStaleResponse counts a discarded response; kind is "messages" or "members".
func (m *Metrics) RecordStaleResponse(kind string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) RecordHeartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Inc()
}

func (m *Metrics) RecordRequest(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requestDuration.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}
