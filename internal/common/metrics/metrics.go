// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Wizard metrics
var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"from", "to", "direction"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_validation_failures_total",
			Help: "Total number of field validation failures",
		},
		[]string{"step", "field"},
	)

	Suggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_suggestions_total",
			Help: "Total number of writing-help suggestions by outcome",
		},
		[]string{"field", "result"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"driver", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_submission_duration_seconds",
			Help: "Duration of submission gateway calls in seconds",
		},
		[]string{"driver"},
	)

	StoreWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_store_write_failures_total",
			Help: "Total number of swallowed application record persistence failures",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_sessions_active",
			Help: "Number of live wizard sessions",
		},
	)
)

// Workflow worker metrics
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
)
