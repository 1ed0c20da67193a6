package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	rowsLoaded       *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Filter/aggregate pipeline runs by source (computed or memo).",
		}, []string{"source"}),
		pipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent computing a dashboard snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		rowsLoaded: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows held per base table after cleaning.",
		}, []string{"dataset"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) ObservePipeline(memoHit bool, d time.Duration) {
	if m == nil {
		return
	}
	if memoHit {
		m.pipelineRuns.WithLabelValues("memo").Inc()
		return
	}
	m.pipelineRuns.WithLabelValues("computed").Inc()
	m.pipelineDuration.Observe(d.Seconds())
}

func (m *Metrics) SetRows(dataset string, rows int) {
	if m == nil {
		return
	}
	m.rowsLoaded.WithLabelValues(dataset).Set(float64(rows))
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// PipelineRunsCounter exposes the run counter for one source label.
func (m *Metrics) PipelineRunsCounter(source string) prometheus.Counter {
	return m.pipelineRuns.WithLabelValues(source)
}
