package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay
type Metrics struct {
	// RequestLatency tracks HTTP request latency by endpoint and method
	RequestLatency *prometheus.HistogramVec
	// HTTPRequestsTotal total HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestsInFlight current HTTP requests being processed
	HTTPRequestsInFlight prometheus.Gauge
	// ErrorCounter counts errors by type and endpoint
	ErrorCounter *prometheus.CounterVec
	// RelayedMessages counts relayed messages by outcome and parse mode
	RelayedMessages *prometheus.CounterVec
	// TelegramAPIDuration tracks Bot API call duration by method
	TelegramAPIDuration *prometheus.HistogramVec
	// ResolverPolls counts getUpdates polls during chat-id resolution
	ResolverPolls *prometheus.CounterVec
	// registry is the custom registry for this metrics instance
	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_latency_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		ErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors",
			},
			[]string{"type", "endpoint"},
		),
		RelayedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relayed_messages_total",
				Help:      "Total number of messages relayed to Telegram",
			},
			[]string{"outcome", "parse_mode"},
		),
		TelegramAPIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "telegram_api_duration_seconds",
				Help:      "Telegram Bot API call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method"},
		),
		ResolverPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolver_polls_total",
				Help:      "Total number of getUpdates polls during chat-id resolution",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.RequestLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.ErrorCounter,
		m.RelayedMessages,
		m.TelegramAPIDuration,
		m.ResolverPolls,
	)

	return m
}

// Handler returns an http.Handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (used by tests to gather)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequestLatency records HTTP request latency
func (m *Metrics) RecordRequestLatency(endpoint, method, status string, seconds float64) {
	m.RequestLatency.WithLabelValues(endpoint, method, status).Observe(seconds)
}

// RecordHTTPRequest increments the request counter
func (m *Metrics) RecordHTTPRequest(endpoint, method, status string) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// IncHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordError increments the error counter
func (m *Metrics) RecordError(errType, endpoint string) {
	m.ErrorCounter.WithLabelValues(errType, endpoint).Inc()
}

// RecordRelayedMessage counts a relay attempt by outcome and parse mode
func (m *Metrics) RecordRelayedMessage(outcome, parseMode string) {
	if parseMode == "" {
		parseMode = "none"
	}
	m.RelayedMessages.WithLabelValues(outcome, parseMode).Inc()
}

// RecordTelegramAPICall records a Bot API call duration
func (m *Metrics) RecordTelegramAPICall(method string, seconds float64) {
	m.TelegramAPIDuration.WithLabelValues(method).Observe(seconds)
}

// RecordResolverPoll counts one resolution poll
func (m *Metrics) RecordResolverPoll(status string) {
	m.ResolverPolls.WithLabelValues(status).Inc()
}
