// Package metrics exposes term graph counters and gauges to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of one registry
type Metrics struct {
	Expansions    *prometheus.CounterVec
	Terms         *prometheus.GaugeVec
	FrontierTerms *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Expansions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termgraph_expansions_total",
				Help: "Expansion steps by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		Terms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "termgraph_terms",
				Help: "Terms known per model, expanded or not",
			},
			[]string{"model"},
		),
		FrontierTerms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "termgraph_frontier_terms",
				Help: "Terms discovered but not yet expanded per model",
			},
			[]string{"model"},
		),
	}
	reg.MustRegister(m.Expansions, m.Terms, m.FrontierTerms)
	return m
}

// ObserveExpansion counts one driver outcome. Safe on a nil receiver.
func (m *Metrics) ObserveExpansion(model, outcome string) {
	if m == nil {
		return
	}
	m.Expansions.WithLabelValues(model, outcome).Inc()
}

// ObserveStore records the size of a model's term map. Safe on a nil receiver.
func (m *Metrics) ObserveStore(model string, terms, frontier int) {
	if m == nil {
		return
	}
	m.Terms.WithLabelValues(model).Set(float64(terms))
	m.FrontierTerms.WithLabelValues(model).Set(float64(frontier))
}
