// Package metrics expone contadores Prometheus del workflow y de las suscripciones.
package metrics

import (
	"context"
	"net/http"

	"apa-backoffice/internal/domain/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
}

// New usa un registry propio para que los tests puedan crear varias instancias.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apa",
			Name:      "workflow_transitions_total",
			Help:      "Transiciones de estado persistidas, por máquina y destino.",
		}, []string{"machine", "from", "to"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "apa",
			Name:      "livequery_subscriptions",
			Help:      "Suscripciones en vivo activas por colección.",
		}, []string{"collection"}),
	}

	reg.MustRegister(m.transitions, m.subscriptions)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// ObserveTransitions cuenta cada evento del bus.
func (m *Metrics) ObserveTransitions(bus *workflow.Bus) {
	bus.Subscribe(workflow.AllMachines, func(_ context.Context, e workflow.Event) error {
		m.transitions.WithLabelValues(e.Machine, e.From, e.To).Inc()
		return nil
	})
}

// SubscriptionsChanged implementa livequery.Observer.
func (m *Metrics) SubscriptionsChanged(collection string, delta int) {
	m.subscriptions.WithLabelValues(collection).Add(float64(delta))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
