package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// One-time codes by channel
	CodesIssued *prometheus.CounterVec
	// Code checks by channel and outcome (accepted, mismatch, expired, locked, missing)
	CodeChecks *prometheus.CounterVec
	// Sends refused by the cooldown gate
	CodesThrottled *prometheus.CounterVec

	// Step completions by step name
	StepsCompleted *prometheus.CounterVec
	// Submission attempts by result (accepted, incomplete, requirement_not_met)
	Submissions *prometheus.CounterVec
	// Admin decisions by decision
	Decisions *prometheus.CounterVec

	// Blob store upload latency by kind (id_document, selfie, certificate)
	UploadLatency *prometheus.HistogramVec
	// Time from submission to decision
	ProcessingTime prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CodesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_codes_issued_total",
			Help: "One-time codes issued by channel",
		}, []string{"channel"}),
		CodeChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_code_checks_total",
			Help: "One-time code checks by channel and outcome",
		}, []string{"channel", "outcome"}),
		CodesThrottled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_codes_throttled_total",
			Help: "Code sends refused by the resend cooldown",
		}, []string{"channel"}),
		StepsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_steps_completed_total",
			Help: "Verification steps completed by step",
		}, []string{"step"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_submissions_total",
			Help: "Submission attempts by result",
		}, []string{"result"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lectern_verification_decisions_total",
			Help: "Admin decisions by decision",
		}, []string{"decision"}),
		UploadLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lectern_verification_upload_duration_seconds",
			Help:    "Blob store upload latency by kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		ProcessingTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lectern_verification_processing_hours",
			Help:    "Hours from submission to approval or rejection",
			Buckets: []float64{1, 4, 12, 24, 48, 72, 120, 168, 336},
		}),
	}
}

func (m *Metrics) IncCodeIssued(channel string) {
	if m != nil {
		m.CodesIssued.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncCodeCheck(channel, outcome string) {
	if m != nil {
		m.CodeChecks.WithLabelValues(channel, outcome).Inc()
	}
}

func (m *Metrics) IncThrottled(channel string) {
	if m != nil {
		m.CodesThrottled.WithLabelValues(channel).Inc()
	}
}

func (m *Metrics) IncStepCompleted(step string) {
	if m != nil {
		m.StepsCompleted.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncSubmission(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) ObserveUpload(kind string, d time.Duration) {
	if m != nil {
		m.UploadLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveProcessingTime(d time.Duration) {
	if m != nil {
		m.ProcessingTime.Observe(d.Hours())
	}
}
