package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline workers.
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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Wizard sessions.
var (
	WizardStepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Step transitions by origin step and direction",
		},
		[]string{"step", "direction"},
	)

	WizardStepRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_rejections_total",
			Help: "Attempts to leave a step that was not complete",
		},
		[]string{"step"},
	)

	WizardSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Backend submissions by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	WizardDraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_draft_saves_total",
			Help: "Debounced draft writes by outcome",
		},
		[]string{"status"},
	)

	WizardActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)
)
