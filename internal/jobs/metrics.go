package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded by Tracker.End.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors shared by the worker's task handlers.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	items       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares a
// single instance registered on the Prometheus default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = register(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdesk_job_runs_total",
			Help: "Task runs by task type and outcome (ok, error, skipped).",
		}, []string{"job", "outcome"}),
		// Reprices of large catalogs run for minutes, expiry sweeps for milliseconds.
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizdesk_job_duration_seconds",
			Help:    "Task run duration by task type.",
			Buckets: prometheus.ExponentialBuckets(0.01, 3, 10),
		}, []string{"job"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdesk_job_items_total",
			Help: "Records changed by task runs, such as repriced articles or expired proposals.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bizdesk_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		now: time.Now,
	}
	registerer.MustRegister(m.runs, m.duration, m.items, m.lastSuccess)
	return m
}

// Tracker times one task run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run and hands err back unchanged. asynq.SkipRetry counts as
// skipped rather than failed.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	outcome := OutcomeOK
	switch {
	case errors.Is(err, asynq.SkipRetry):
		outcome = OutcomeSkipped
	case err != nil:
		outcome = OutcomeError
	default:
		m.lastSuccess.WithLabelValues(t.job).Set(float64(m.now().Unix()))
	}
	m.runs.WithLabelValues(t.job, outcome).Inc()
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddItems adds count changed records to job's tally.
func (m *Metrics) AddItems(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.items.WithLabelValues(job).Add(float64(count))
}
