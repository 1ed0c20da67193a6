package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePipeline(true, time.Millisecond)
		m.SetRows("payments", 10)
		m.ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	})
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePipeline(false, 5*time.Millisecond)
	m.ObservePipeline(true, 0)
	m.ObservePipeline(true, 0)
	m.SetRows("sellers", 3095)
	m.ObserveRequest(http.MethodGet, "/api/top-cities", http.StatusOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsCounter("computed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PipelineRunsCounter("memo")))
	assert.Equal(t, 3095.0, testutil.ToFloat64(m.rowsLoaded.WithLabelValues("sellers")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/top-cities", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pipelineDuration))
}
