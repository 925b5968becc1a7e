package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)
	metrics.ObservePhase("confirming", 250*time.Millisecond)
	metrics.IncOutcome("success", "")
	metrics.IncOutcome("error", "INSUFFICIENT_FUNDS")
	metrics.IncDuplicateHash()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_outcome_total", "state", "success"); err != nil {
		t.Fatalf("fetch success outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_outcome_total", "code", "INSUFFICIENT_FUNDS"); err != nil {
		t.Fatalf("fetch error outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected error=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_phase_duration_seconds", "phase", "confirming"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	guard := findMetricFamily(mfs, "checkout_duplicate_hash_total")
	if guard == nil || len(guard.GetMetric()) == 0 {
		t.Fatalf("expected duplicate hash counter to be registered")
	}
	if got := guard.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected duplicate hash=1, got %f", got)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.ObservePhase("confirming", time.Second)
	metrics.IncOutcome("success", "")
	metrics.IncDuplicateHash()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
