// Package observability provides the relay's Prometheus metrics and health endpoints.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay Prometheus metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	UpstreamStatus   *prometheus.CounterVec
}

// NewMetrics creates and registers the relay metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iv_proxy_requests_total",
			Help: "Relay requests handled, by route and outcome.",
		}, []string{"route", "outcome"}),

		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iv_proxy_upstream_duration_seconds",
			Help:    "Time spent waiting on the webhook destination.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		UpstreamStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iv_proxy_upstream_status_total",
			Help: "Webhook destination responses by status code.",
		}, []string{"route", "code"}),
	}
}

// ObserveRequest counts one handled request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(route, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, outcome).Inc()
}

// ObserveUpstream records one outbound exchange. A zero status means no response was received.
func (m *Metrics) ObserveUpstream(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	if status != 0 {
		m.UpstreamStatus.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}
