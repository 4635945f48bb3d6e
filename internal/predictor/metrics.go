package predictor

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the prediction engine
var (
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "predictions_total",
		Help:      "Total number of trifecta tables computed",
	})

	TrainingEventsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_events_rejected_total",
		Help:      "Training events rejected for invalid row counts or ranks",
	})

	SchemaSubstitutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "schema_substitutions_total",
		Help:      "Missing features filled with the neutral default at inference",
	}, []string{"stage"})

	DegenerateGroupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "boatrace_predictor",
		Name:      "degenerate_groups_total",
		Help:      "Score groups that fell back to a uniform distribution",
	})

	TrainingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_duration_seconds",
		Help:      "Duration of stage classifier training",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})

	TrainingIterations = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "boatrace_predictor",
		Name:      "training_iterations",
		Help:      "Gradient ascent iterations used by the last stage fit",
	}, []string{"stage"})
)

// Collectors returns all predictor metrics for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PredictionsTotal,
		TrainingEventsRejected,
		SchemaSubstitutionsTotal,
		DegenerateGroupsTotal,
		TrainingDuration,
		TrainingIterations,
	}
}
