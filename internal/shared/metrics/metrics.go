package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported on /metrics.
var Registry = prometheus.NewRegistry()

var (
	jobsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analyze_jobs_created_total",
		Help: "Total analyze jobs created",
	})
	jobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analyze_jobs_completed_total",
		Help: "Total analyze jobs completed",
	})
	jobsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analyze_jobs_failed_total",
		Help: "Total analyze jobs failed, by reason",
	}, []string{"reason"})
	jobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analyze_job_duration_seconds",
		Help:    "Time from dispatch to terminal state",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	})
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "page_fetch_duration_seconds",
		Help:    "Page fetch latency, by outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "analyze_queue_depth",
		Help: "Tasks waiting in the local worker queue",
	})
)

func init() {
	Registry.MustRegister(
		jobsCreated, jobsCompleted, jobsFailed, jobDuration, fetchDuration, queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncJobCreated increments the created counter.
func IncJobCreated() { jobsCreated.Inc() }

// IncJobCompleted increments the completed counter.
func IncJobCompleted() { jobsCompleted.Inc() }

// IncJobFailed increments the failed counter for reason.
func IncJobFailed(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	jobsFailed.WithLabelValues(reason).Inc()
}

// ObserveJobDuration records how long a job took to reach a terminal state.
func ObserveJobDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	jobDuration.Observe(d.Seconds())
}

// ObserveFetch records a page fetch.
func ObserveFetch(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetQueueDepth reports the number of queued tasks.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
