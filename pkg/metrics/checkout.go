package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout flow outcomes and timings.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
	guardHit prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_phase_duration_seconds",
		Help:    "Duration of checkout phases in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcome_total",
		Help: "Checkout completions by terminal state and error code.",
	}, []string{"state", "code"})
	guardHit := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_duplicate_hash_total",
		Help: "Payments rejected because the transaction hash was already claimed.",
	})
	reg.MustRegister(duration, outcome, guardHit)
	return &CheckoutMetrics{
		duration: duration,
		outcome:  outcome,
		guardHit: guardHit,
	}
}

// ObservePhase records the duration for the named checkout phase.
func (c *CheckoutMetrics) ObservePhase(phase string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(phase)).Observe(duration.Seconds())
}

// IncOutcome counts a terminal checkout state. Code is empty for success.
func (c *CheckoutMetrics) IncOutcome(state, code string) {
	if c == nil || c.outcome == nil {
		return
	}
	if code == "" {
		code = "none"
	}
	c.outcome.WithLabelValues(normalizeLabel(state), code).Inc()
}

// IncDuplicateHash counts a payment rejected by the per-hash guard.
func (c *CheckoutMetrics) IncDuplicateHash() {
	if c == nil || c.guardHit == nil {
		return
	}
	c.guardHit.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
