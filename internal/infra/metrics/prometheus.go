package metrics

import (
	"github.com/fiapx/fiapx-pose-service/internal/pose"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_pose_jobs_processed_total",
		Help: "Total number of smoothing jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fiapx_pose_job_processing_duration_seconds",
		Help:    "Duration of the keypoint smoothing pipeline, by stage",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	FramesSmoothedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fiapx_pose_frames_smoothed_total",
		Help: "Total number of output frames produced across all jobs",
	})

	SmoothingEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_pose_smoothing_events_total",
		Help: "Diagnostics raised while smoothing, by kind and joint",
	}, []string{"kind", "joint"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fiapx_pose_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fiapx_pose_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)

// ObserveEvent counts one smoothing diagnostic. Degenerate frames carry no
// joint and are labelled "none".
func ObserveEvent(e pose.Event) {
	joint := e.Joint.String()
	if e.Kind == pose.EventDegenerateGeometry {
		joint = "none"
	}
	SmoothingEventsTotal.WithLabelValues(e.Kind.String(), joint).Inc()
}
