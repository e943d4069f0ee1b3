package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	recordsCreated prometheus.Counter
	rainfallMm     prometheus.Counter
	providerFetch  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainlog",
			Name:      "records_created_total",
			Help:      "Number of rainfall records stored.",
		}),
		rainfallMm: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainlog",
			Name:      "rainfall_mm_total",
			Help:      "Sum of rainfall recorded since process start, in millimetres.",
		}),
		providerFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainlog",
			Name:      "provider_fetch_total",
			Help:      "Upstream provider fetches by provider and result.",
		}, []string{"provider", "result"}),
	}
	reg.MustRegister(m.recordsCreated, m.rainfallMm, m.providerFetch)
	return m
}

func (m *Metrics) RecordCreated(amountMm float64) {
	if m == nil {
		return
	}
	m.recordsCreated.Inc()
	m.rainfallMm.Add(amountMm)
}

func (m *Metrics) ProviderFetch(provider string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.providerFetch.WithLabelValues(provider, result).Inc()
}
