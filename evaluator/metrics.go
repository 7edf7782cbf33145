package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of an evaluator.
type Metrics struct {
	PassesTotal    prometheus.Counter
	PassDuration   prometheus.Histogram
	ProcessedTotal *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	NotReadyTotal  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		PassesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "procnet_evaluation_passes_total",
			Help: "Total number of evaluation passes",
		}),
		PassDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "procnet_evaluation_duration_seconds",
			Help:    "Evaluation pass duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		ProcessedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "procnet_processors_processed_total",
			Help: "Total number of successful processor evaluations",
		}, []string{"class"}),
		ErrorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "procnet_processor_errors_total",
			Help: "Total number of failed processor evaluations",
		}, []string{"class"}),
		NotReadyTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "procnet_processors_not_ready_total",
			Help: "Total number of invalid processors skipped because an input was not ready",
		}),
	}
}

func (m *Metrics) recordPass(p *Pass) {
	if m == nil {
		return
	}
	m.PassesTotal.Inc()
	m.PassDuration.Observe(p.Duration.Seconds())
	m.NotReadyTotal.Add(float64(len(p.NotReady)))
}

func (m *Metrics) recordProcessed(class string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ErrorsTotal.WithLabelValues(class).Inc()
		return
	}
	m.ProcessedTotal.WithLabelValues(class).Inc()
}
