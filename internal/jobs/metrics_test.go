package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	const task = "ledger:gl:integrity"

	_ = m.Track(task).End(nil)
	err := m.Track(task).End(errors.New("boom"))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("End must return the error untouched, got %v", err)
	}
	_ = m.Track(task).End(fmt.Errorf("bad payload: %w", asynq.SkipRetry))

	for status, want := range map[string]float64{OutcomeOK: 1, OutcomeRetry: 1, OutcomeDropped: 1} {
		if got := testutil.ToFloat64(m.runs.WithLabelValues(task, status)); got != want {
			t.Fatalf("status %s: expected %v, got %v", status, want, got)
		}
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues(task)); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
}

func TestCountersIgnoreEmptyBatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.AddImbalances(4, 0)
	m.AddImbalances(4, 2)
	m.AddProcessed("ledger:balances:warmup", 16)
	m.AddProcessed("ledger:balances:warmup", -1)

	if got := testutil.ToFloat64(m.imbalances.WithLabelValues("4")); got != 2 {
		t.Fatalf("expected 2 imbalances, got %v", got)
	}
	if got := testutil.ToFloat64(m.processed.WithLabelValues("ledger:balances:warmup")); got != 16 {
		t.Fatalf("expected 16 rows, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddImbalances(1, 3)
	m.AddProcessed("x", 1)
	if err := m.Track("x").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
