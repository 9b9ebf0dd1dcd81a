package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "butter_video_runs_total",
		Help: "Total number of comparison runs, by final status",
	}, []string{"status"})

	FramesScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "butter_video_frames_scored_total",
		Help: "Total number of frame pairs scored across all runs",
	})

	ScorerInvocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "butter_video_scorer_invocation_duration_seconds",
		Help:    "Duration of one external scorer invocation, including image writes",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "butter_video_active_workers",
		Help: "Number of workers currently scoring a frame pair",
	})
)
