package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the evaluator's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	OracleQueries    *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	Closures         *prometheus.CounterVec
	ClosureSize      *prometheus.HistogramVec
	Evaluations      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		OracleQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spart",
			Name:      "oracle_queries_total",
			Help:      "Entailment queries by result",
		}, []string{"result"}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "spart",
			Name:      "oracle_classify_duration_seconds",
			Help:      "Time spent classifying merged ontologies",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
		Closures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spart",
			Name:      "closures_total",
			Help:      "Closure computations by semantic and outcome",
		}, []string{"semantic", "outcome"}),
		ClosureSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spart",
			Name:      "closure_size",
			Help:      "Number of correspondences in computed closures",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"semantic"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spart",
			Name:      "evaluations_total",
			Help:      "Evaluation runs by semantic and outcome",
		}, []string{"semantic", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.OracleQueries, m.ClassifyDuration, m.Closures, m.ClosureSize, m.Evaluations}
}

func (m *Metrics) ObserveQuery(result string) {
	if m == nil {
		return
	}
	m.OracleQueries.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveClassify(d time.Duration) {
	if m == nil {
		return
	}
	m.ClassifyDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveClosure(semantic, outcome string, size int) {
	if m == nil {
		return
	}
	m.Closures.WithLabelValues(semantic, outcome).Inc()
	if outcome == "ok" {
		m.ClosureSize.WithLabelValues(semantic).Observe(float64(size))
	}
}

func (m *Metrics) ObserveEvaluation(semantic, outcome string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(semantic, outcome).Inc()
}

// Registry couples the evaluator metrics with a dedicated prometheus registry
// that also exports Go runtime and process collectors.
type Registry struct {
	registry *prometheus.Registry
	Metrics  *Metrics
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Metrics:  NewMetrics(),
	}
	r.registry.MustRegister(r.Metrics.collectors()...)
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
