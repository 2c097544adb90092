// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	EvaluationsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_scored_total",
			Help: "Total number of eligibility evaluations scored",
		},
		[]string{"visa_type", "status"},
	)

	MatchingExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_exhausted_total",
			Help: "Matching runs where no candidate passed the hard filters",
		},
		[]string{"visa_type"},
	)
)
