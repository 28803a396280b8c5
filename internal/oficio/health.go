package oficio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Health struct {
	registry  *prometheus.Registry
	Documents *prometheus.CounterVec
	Maps      prometheus.Counter
	Failures  *prometheus.CounterVec
	Duration  prometheus.Histogram
}

func NewHealth() *Health {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Health{
		registry: registry,
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oficios_documents_generated_total",
			Help: "Total number of memos generated",
		}, []string{"type"}),
		Maps: factory.NewCounter(prometheus.CounterOpts{
			Name: "oficios_maps_rendered_total",
			Help: "Total number of maps rendered",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oficios_failures_total",
			Help: "Total number of memos that could not be generated",
		}, []string{"type"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "oficios_generation_seconds",
			Help:    "Time taken to generate one memo",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}
}

// WriteTextfile writes the metrics for the node exporter textfile collector.
func (h *Health) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.registry)
}
