package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncCodeIssued("email")
	m.IncCodeIssued("email")
	m.IncCodeCheck("phone", "mismatch")
	m.IncDecision("approved")
	m.ObserveUpload("selfie", 200*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CodesIssued.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodeChecks.WithLabelValues("phone", "mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("approved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UploadLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCodeIssued("email")
		m.IncSubmission("accepted")
		m.ObserveProcessingTime(time.Hour)
	})
}
