package contact

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by the intake pipeline.
const (
	OutcomeDelivered        = "delivered"
	OutcomeHoneypot         = "honeypot"
	OutcomeRateLimited      = "rate_limited"
	OutcomeMalformedBody    = "malformed_body"
	OutcomeValidationFailed = "validation_failed"
	OutcomeNotifyFailed     = "notify_failed"
)

type Metrics struct {
	submissions *prometheus.CounterVec
}

// NewMetrics registers the intake counters. A nil registerer (metrics
// disabled) yields a no-op Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Contact form submissions by terminal outcome.",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.submissions)
	return m
}

func (m *Metrics) Record(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}
