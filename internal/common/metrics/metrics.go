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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Inference pipeline metrics
var (
	ClusterAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnstyle_cluster_assignments_total",
			Help: "Profiles assigned to each learning-style cluster",
		},
		[]string{"cluster_name"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnstyle_pipeline_failures_total",
			Help: "Inference runs that ended in an error, by error code",
		},
		[]string{"error_code"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnstyle_inference_duration_seconds",
			Help:    "Duration of one preprocess, project, assign and recommend pass",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"source"},
	)

	PredictionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnstyle_prediction_cache_total",
			Help: "Prediction cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	RecommendationsEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learnstyle_recommendations_per_profile",
			Help:    "Number of recommendations returned per profile",
			Buckets: prometheus.LinearBuckets(0, 1, 9),
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "learnstyle_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
