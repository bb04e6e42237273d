package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	tokensIssued     *prometheus.CounterVec
	requestsRejected *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "calltoken_tokens_issued_total",
			Help: "Total number of call tokens issued",
		}, []string{"role"}),

		requestsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "calltoken_requests_rejected_total",
			Help: "Total number of token requests rejected by validation",
		}, []string{"reason"}),

		providerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "calltoken_provider_requests_total",
			Help: "Total number of calls to the streaming provider",
		}, []string{"op", "result"}),

		providerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calltoken_provider_request_duration_seconds",
			Help:    "Duration of calls to the streaming provider",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"op"}),
	}
}

// TokenIssued counts a successfully issued token.
func (m *Metrics) TokenIssued(role string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(roleLabel(role)).Inc()
}

// roleLabel bounds label cardinality, roles come from client input.
func roleLabel(role string) string {
	switch role {
	case "viewer", "user", "broadcaster":
		return role
	default:
		return "other"
	}
}

// RequestRejected counts a request refused by validation.
func (m *Metrics) RequestRejected(reason string) {
	if m == nil {
		return
	}
	m.requestsRejected.WithLabelValues(reason).Inc()
}

// ProviderRequest records one provider call and its outcome.
func (m *Metrics) ProviderRequest(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerRequests.WithLabelValues(op, result).Inc()
	m.providerDuration.WithLabelValues(op).Observe(seconds)
}

// TokensIssued exposes the issued tokens counter, mostly for tests.
func (m *Metrics) TokensIssued() *prometheus.CounterVec {
	return m.tokensIssued
}

// RequestsRejected exposes the rejected requests counter, mostly for tests.
func (m *Metrics) RequestsRejected() *prometheus.CounterVec {
	return m.requestsRejected
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
