package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// RequestLatency tracks HTTP request latency by endpoint and method
	RequestLatency *prometheus.HistogramVec
	// OAuthExchanges counts OAuth code exchanges by outcome
	OAuthExchanges *prometheus.CounterVec
	// WebhookEvents counts webhook deliveries by event type and outcome
	WebhookEvents *prometheus.CounterVec
	// RepoListings counts repository listing calls by outcome
	RepoListings *prometheus.CounterVec
	// AuthorizedIdentities tracks how many identities hold a token
	AuthorizedIdentities prometheus.Gauge
	// ErrorCounter counts errors by type and endpoint
	ErrorCounter *prometheus.CounterVec
	// HTTPRequestsTotal total HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestsInFlight current HTTP requests being processed
	HTTPRequestsInFlight prometheus.Gauge
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
		OAuthExchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oauth_exchanges_total",
				Help:      "Total number of OAuth code exchanges",
			},
			[]string{"outcome"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total number of webhook deliveries",
			},
			[]string{"event_type", "outcome"},
		),
		RepoListings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repo_listings_total",
				Help:      "Total number of repository listing calls",
			},
			[]string{"outcome"},
		),
		AuthorizedIdentities: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "authorized_identities",
				Help:      "Number of identities with a stored access token",
			},
		),
		ErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors",
			},
			[]string{"type", "endpoint", "method"},
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
	}

	// Register metrics with custom registry
	registry.MustRegister(
		m.RequestLatency,
		m.OAuthExchanges,
		m.WebhookEvents,
		m.RepoListings,
		m.AuthorizedIdentities,
		m.ErrorCounter,
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
	)

	return m
}

// Handler returns a Prometheus handler for these metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequestLatency records the latency of an HTTP request
func (m *Metrics) RecordRequestLatency(endpoint, method, status string, durationSeconds float64) {
	m.RequestLatency.WithLabelValues(endpoint, method, status).Observe(durationSeconds)
}

// RecordOAuthExchange records an OAuth code exchange outcome
func (m *Metrics) RecordOAuthExchange(outcome string) {
	m.OAuthExchanges.WithLabelValues(outcome).Inc()
}

// RecordWebhookEvent records a webhook delivery outcome
func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordRepoListing records a repository listing outcome
func (m *Metrics) RecordRepoListing(outcome string) {
	m.RepoListings.WithLabelValues(outcome).Inc()
}

// SetAuthorizedIdentities sets the stored-token gauge
func (m *Metrics) SetAuthorizedIdentities(count int) {
	m.AuthorizedIdentities.Set(float64(count))
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, endpoint, method string) {
	m.ErrorCounter.WithLabelValues(errorType, endpoint, method).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint, method, status string) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// IncHTTPRequestsInFlight increments the in-flight requests counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight requests counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
