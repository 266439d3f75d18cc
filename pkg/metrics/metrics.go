package metrics

import (
	"context"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts forwarded operations and is used as a forwarder recorder.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forwarder_operations_total",
				Help: "Forwarded operations by method and status",
			},
			[]string{"method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forwarder_operation_duration_seconds",
				Help:    "Time from session begin to commit or rollback",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) Record(_ context.Context, op *types.Operation) error {
	m.operations.WithLabelValues(op.Method, op.Status()).Inc()
	m.duration.WithLabelValues(op.Method).Observe(op.Duration.Seconds())
	return nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile dumps the registry in the node exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
