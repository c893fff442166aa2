package jobmetrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded on ledger_jobs_total.
const (
	OutcomeOK      = "ok"
	OutcomeRetry   = "retry"
	OutcomeDropped = "dropped"
)

// Metrics holds the collectors shared by ledger background jobs.
type Metrics struct {
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	imbalances *prometheus.CounterVec
	processed  *prometheus.CounterVec
}

var (
	sharedOnce sync.Once
	shared     *Metrics
)

// NewMetrics registers job collectors on reg. A nil reg registers once on the
// Prometheus default registerer and returns that instance on every call.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg != nil {
		return register(reg)
	}
	sharedOnce.Do(func() { shared = register(prometheus.DefaultRegisterer) })
	return shared
}

// Run measures one execution of a task type.
type Run struct {
	m       *Metrics
	task    string
	started time.Time
}

// Track starts measuring a run of task.
func (m *Metrics) Track(task string) *Run {
	return &Run{m: m, task: task, started: time.Now()}
}

// End records the outcome of the run and hands err back to the caller.
// Errors wrapping asynq.SkipRetry are counted as dropped.
func (r *Run) End(err error) error {
	if r == nil || r.m == nil || r.task == "" {
		return err
	}
	r.m.duration.WithLabelValues(r.task).Observe(time.Since(r.started).Seconds())
	r.m.runs.WithLabelValues(r.task, outcome(err)).Inc()
	if err != nil {
		r.m.failures.WithLabelValues(r.task).Inc()
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, asynq.SkipRetry):
		return OutcomeDropped
	default:
		return OutcomeRetry
	}
}

// AddImbalances counts posted entries found out of balance for an organization.
func (m *Metrics) AddImbalances(organizationID int64, count int) {
	if m != nil && count > 0 {
		m.imbalances.WithLabelValues(strconv.FormatInt(organizationID, 10)).Add(float64(count))
	}
}

// AddProcessed counts rows a job touched, such as warmed balances or purged keys.
func (m *Metrics) AddProcessed(task string, count int64) {
	if m != nil && count > 0 {
		m.processed.WithLabelValues(task).Add(float64(count))
	}
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_jobs_total",
			Help: "Ledger job runs by task type and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_jobs_failures_total",
			Help: "Ledger job runs that returned an error.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_job_duration_seconds",
			Help:    "Wall time of ledger job runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		imbalances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_unbalanced_entries_total",
			Help: "Posted journal entries detected out of balance, by organization.",
		}, []string{"organization"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_job_rows_total",
			Help: "Rows processed by ledger jobs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration, m.imbalances, m.processed)
	return m
}
