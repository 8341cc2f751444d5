package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surety"

// Metrics are the node's contract-level series. The ABCI host updates them per transaction
// and per block; /metrics exposes them.
type Metrics struct {
	Transactions *prometheus.CounterVec
	Events       *prometheus.CounterVec
	Height       prometheus.Gauge
	Registry     *prometheus.Registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Delivered transactions by type and result code.",
		}, []string{"type", "code"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Contract events emitted by type.",
		}, []string{"type"}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "height",
			Help:      "Last committed block height.",
		}),
		Registry: registry,
	}
	registry.MustRegister(m.Transactions, m.Events, m.Height)
	return m
}
