package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WarmerMetrics tracks the background refresh jobs.
type WarmerMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewWarmerMetrics registers the job collectors. A nil registerer yields a
// no-op recorder.
func NewWarmerMetrics(reg prometheus.Registerer) *WarmerMetrics {
	if reg == nil {
		return &WarmerMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warmer_job_runs_total",
		Help: "Background job runs by job and result.",
	}, []string{"job", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warmer_job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "warmer_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run.",
	}, []string{"job"})
	reg.MustRegister(runs, duration, lastSuccess)
	return &WarmerMetrics{runs: runs, duration: duration, lastSuccess: lastSuccess}
}

// ObserveRun records one finished run.
func (m *WarmerMetrics) ObserveRun(job string, started time.Time, duration time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.runs.WithLabelValues(job, "error").Inc()
		return
	}
	m.runs.WithLabelValues(job, "ok").Inc()
	m.lastSuccess.WithLabelValues(job).Set(float64(started.Add(duration).Unix()))
}
