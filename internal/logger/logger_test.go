package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("bogus", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerFormatterByEnvironment(t *testing.T) {
	log := NewLogger("info", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("info", "development")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestPredictionLoggerLogPrediction(t *testing.T) {
	log, buf := setupTestLogger()
	predLogger := NewPredictionLogger(log)

	predLogger.LogPrediction("race-1", 120, "1-2-3", 0.08, false, 2.5)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "prediction", entry["component"])
	assert.Equal(t, "race-1", entry["race_id"])
	assert.Equal(t, "1-2-3", entry["top_outcome"])
	assert.Equal(t, float64(120), entry["outcomes"])
}

func TestPredictionLoggerLogSchemaSubstitution(t *testing.T) {
	log, buf := setupTestLogger()
	predLogger := NewPredictionLogger(log)

	predLogger.LogSchemaSubstitution("race-1", "second_place", "exhibition_time")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "exhibition_time", entry["feature"])
}
