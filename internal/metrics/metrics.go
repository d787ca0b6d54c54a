// Package metrics exposes Prometheus counters for enrichment runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
)

// Outcome labels for provider calls.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry sets the registry metrics are registered on and gathered from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns the enrichment metrics.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	providerCalls *prometheus.CounterVec
	providerCost  *prometheus.CounterVec
	contacts      *prometheus.CounterVec
	fieldsFilled  *prometheus.CounterVec
	batchSeconds  prometheus.Histogram
}

// NewManager creates a Manager on a private registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "enricher",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.providerCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "provider_calls_total",
		Help:      "Provider attempts by API and outcome.",
	}, []string{"api", "outcome"})
	m.providerCost = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "provider_cost_usd_total",
		Help:      "USD charged per provider API.",
	}, []string{"api"})
	m.contacts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "contacts_total",
		Help:      "Contacts that finished an enrichment pass, by final status.",
	}, []string{"status"})
	m.fieldsFilled = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fields_filled_total",
		Help:      "Fields written by enrichment, by field name.",
	}, []string{"field"})
	m.batchSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall time of one concurrent batch.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
	return m
}

// ProviderCall records one provider attempt and what it charged.
func (m *Manager) ProviderCall(api, outcome string, usd float64) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(api, outcome).Inc()
	if usd > 0 {
		m.providerCost.WithLabelValues(api).Add(usd)
	}
}

// FieldFilled records a field written by enrichment.
func (m *Manager) FieldFilled(field string) {
	if m == nil {
		return
	}
	m.fieldsFilled.WithLabelValues(field).Inc()
}

// ContactFinished records the final status of an enrichment pass.
func (m *Manager) ContactFinished(status string) {
	if m == nil {
		return
	}
	m.contacts.WithLabelValues(status).Inc()
}

// BatchDone records the duration of a completed batch.
func (m *Manager) BatchDone(seconds float64) {
	if m == nil {
		return
	}
	m.batchSeconds.Observe(seconds)
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes a snapshot of the registry to path in the text
// exposition format.
func (m *Manager) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
