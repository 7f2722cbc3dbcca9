package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// tasksDispatched counts tasks handed to workers by kind
	tasksDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_tasks_dispatched_total",
		Help: "Total render tasks dispatched to workers by kind",
	}, []string{"kind"})

	// tasksCompleted counts merged task results by kind
	tasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_tasks_completed_total",
		Help: "Total render task results merged by kind",
	}, []string{"kind"})

	// tasksCancelled counts tasks that stopped early and were re-queued
	tasksCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_tasks_cancelled_total",
		Help: "Total render tasks cancelled and re-queued by kind",
	}, []string{"kind"})

	// tasksRejected counts submissions refused by a job
	tasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_tasks_rejected_total",
		Help: "Total task submissions rejected by reason",
	}, []string{"reason"}) // "unknown" or "malformed"

	// taskDuration tracks how long tasks run
	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mlt_task_duration_seconds",
		Help:    "Render task duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	}, []string{"kind"})

	// samplesMerged counts passes, phase-1 samples and mutations merged into results
	samplesMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_samples_merged_total",
		Help: "Total samples merged into job results by task kind",
	}, []string{"kind"})
)
