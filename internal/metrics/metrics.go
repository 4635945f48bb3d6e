// Package metrics provides the centralized Prometheus metrics registry for
// the boatrace predictor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "races_ingested_total",
		Help:      "Total number of race cards ingested",
	})
	TrainingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_runs_total",
		Help:      "Total number of training runs by status",
	}, []string{"status"})
	EvaluationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "evaluation_runs_total",
		Help:      "Total number of evaluation runs by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	ModelTrainedTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "boatrace_predictor",
		Name:      "model_trained_timestamp_seconds",
		Help:      "Unix timestamp of the currently loaded model's training run",
	})
	TrainingEventsUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_events_used",
		Help:      "Valid training events consumed by the last training run",
	})
)

// Histogram metrics
var (
	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "boatrace_predictor",
		Name:      "prediction_latency_seconds",
		Help:      "Latency of a full trifecta table computation",
		Buckets:   prometheus.DefBuckets,
	})
	TrainingRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_run_duration_seconds",
		Help:      "Duration of end-to-end training runs",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(RacesIngestedTotal)
		registry.MustRegister(TrainingRunsTotal)
		registry.MustRegister(EvaluationRunsTotal)

		// Register gauge metrics
		registry.MustRegister(ModelTrainedTimestamp)
		registry.MustRegister(TrainingEventsUsed)

		// Register histogram metrics
		registry.MustRegister(PredictionLatency)
		registry.MustRegister(TrainingRunDuration)

		// Register engine metrics
		for _, collector := range predictor.Collectors() {
			registry.MustRegister(collector)
		}
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordTrainingRun records a training run outcome.
// status should be one of: "success", "failure"
func RecordTrainingRun(status string, durationSeconds float64) {
	TrainingRunsTotal.WithLabelValues(status).Inc()
	TrainingRunDuration.Observe(durationSeconds)
}

// RecordEvaluationRun records an evaluation run outcome.
func RecordEvaluationRun(status string) {
	EvaluationRunsTotal.WithLabelValues(status).Inc()
}

// RecordRaceIngested records one ingested race card.
func RecordRaceIngested() {
	RacesIngestedTotal.Inc()
}

// RecordPredictionLatency records end-to-end prediction latency.
func RecordPredictionLatency(durationSeconds float64) {
	PredictionLatency.Observe(durationSeconds)
}

// UpdateModelTimestamp updates the loaded-model training timestamp gauge.
func UpdateModelTimestamp(unixSeconds float64) {
	ModelTrainedTimestamp.Set(unixSeconds)
}

// UpdateTrainingEventsUsed updates the last-run training event count.
func UpdateTrainingEventsUsed(count float64) {
	TrainingEventsUsed.Set(count)
}
