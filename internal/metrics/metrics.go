// Package metrics exposes Prometheus counters for the worker loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retakecut_jobs_claimed_total",
		Help: "Jobs claimed from the queue, by type.",
	}, []string{"type"})

	JobsSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retakecut_jobs_succeeded_total",
		Help: "Jobs that completed successfully, by type.",
	}, []string{"type"})

	JobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retakecut_jobs_failed_total",
		Help: "Jobs that ended in failure, by type.",
	}, []string{"type"})

	FallbackCuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retakecut_fallback_cuts_total",
		Help: "Cut instructions produced by the deterministic fallback instead of the decision service.",
	})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retakecut_job_duration_seconds",
		Help:    "Wall-clock job processing time, by type.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"type"})
)

// Serve starts the /metrics listener on addr. It blocks; run it in its own
// goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
