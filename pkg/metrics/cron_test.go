package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("promotion_expiry")
	m.IncSuccess("promotion_expiry")
	m.IncFailure("promotion_expiry")
	m.ObserveDuration("promotion_expiry", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("promotion_expiry")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("promotion_expiry")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	t.Parallel()

	m := NewCronJobMetrics(nil)
	m.IncSuccess("x")
	m.IncFailure("x")
	m.ObserveDuration("x", time.Second)
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	if normalizeLabel("") != "unknown" {
		t.Fatal("empty label should normalize to unknown")
	}
}
