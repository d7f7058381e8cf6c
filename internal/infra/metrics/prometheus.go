package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skywatch_jobs_processed_total",
		Help: "Total number of annotation jobs processed, by terminal status",
	}, []string{"status"})

	JobStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skywatch_job_stage_duration_seconds",
		Help:    "Duration of the annotation pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	FramesAnnotatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skywatch_frames_annotated_total",
		Help: "Total number of frame annotations emitted, by outcome",
	}, []string{"outcome"})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skywatch_active_jobs",
		Help: "Number of annotation jobs currently in flight",
	})

	UploadsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skywatch_uploads_accepted_total",
		Help: "Total number of accepted video uploads",
	})
)
