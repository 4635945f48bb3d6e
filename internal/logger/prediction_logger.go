package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction operations.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a completed trifecta prediction.
func (pl *PredictionLogger) LogPrediction(raceID string, outcomes int, topOutcome string, topProbability float64, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"race_id":         raceID,
		"outcomes":        outcomes,
		"top_outcome":     topOutcome,
		"top_probability": topProbability,
		"cache_hit":       cacheHit,
		"latency_ms":      latencyMs,
	}).Info("Trifecta prediction completed")
}

// LogTraining logs a completed training run.
func (pl *PredictionLogger) LogTraining(events int, rejected int, durationSeconds float64, modelDir string) {
	pl.WithFields(logrus.Fields{
		"events":           events,
		"rejected":         rejected,
		"duration_seconds": durationSeconds,
		"model_dir":        modelDir,
	}).Info("Model training completed")
}

// LogSchemaSubstitution logs a recovered feature schema mismatch.
func (pl *PredictionLogger) LogSchemaSubstitution(raceID string, stage string, feature string) {
	pl.WithFields(logrus.Fields{
		"race_id": raceID,
		"stage":   stage,
		"feature": feature,
	}).Warn("Feature missing at inference, substituted neutral default")
}
