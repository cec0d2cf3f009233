package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счётчики выполнения графов.
//
// Создаётся один раз на процесс. Значения только растут, поэтому
// разделение между run не влияет на их результаты.
type Metrics struct {
	runs          *prometheus.CounterVec
	nodes         *prometheus.CounterVec
	nodeDurations *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в reg.
// nil — глобальный prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dataflow_runs_total",
			Help: "Total workflow runs by final status",
		}, []string{"status"}),
		nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dataflow_node_executions_total",
			Help: "Total node executions by operation kind and status",
		}, []string{"kind", "status"}),
		nodeDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dataflow_node_duration_seconds",
			Help:    "Node execution duration by operation kind",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"kind"}),
	}
}

// RunFinished учитывает завершённый run.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// NodeFinished учитывает выполнение узла.
func (m *Metrics) NodeFinished(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(kind, status).Inc()
	m.nodeDurations.WithLabelValues(kind).Observe(d.Seconds())
}
