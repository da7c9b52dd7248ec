package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Message outcomes recorded per stage.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient_fail"
	OutcomePermanent = "permanent_fail"
	OutcomeDuplicate = "duplicate"
)

// Metrics counts processed messages and their latency per stage.
type Metrics struct {
	messages *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainwatch_stage_messages_total",
			Help: "Messages processed per stage, labelled by outcome.",
		}, []string{"stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainwatch_stage_duration_seconds",
			Help:    "Per-message processing time per stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
	}
	reg.MustRegister(m.messages, m.duration)
	return m
}

// Observe records one processed message.
func (m *Metrics) Observe(stage, outcome string, seconds float64) {
	m.messages.WithLabelValues(stage, outcome).Inc()
	m.duration.WithLabelValues(stage).Observe(seconds)
}
