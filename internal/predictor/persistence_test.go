package predictor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRequiresTrainedModel(t *testing.T) {
	engine := NewEngine(6, DefaultTrainingOptions(), nil)
	err := engine.Save(t.TempDir())
	require.ErrorIs(t, err, ErrModelNotTrained)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	engine := trainedEngine(t)
	dir := t.TempDir()
	require.NoError(t, engine.Save(dir))

	// Stage-qualified artifacts plus the manifest
	for _, name := range []string{"first_place.json", "second_place.json", "third_place.json", "manifest.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "expected artifact %s", name)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	loaded, err := Load(dir, logger)
	require.NoError(t, err)
	assert.Equal(t, StateFullyTrained, loaded.State())
	assert.Equal(t, 6, loaded.N())

	// Feature-name order must survive the round trip exactly
	assert.Equal(t, engine.first.featureNames, loaded.first.featureNames)
	assert.Equal(t, engine.second.featureNames, loaded.second.featureNames)
	assert.Equal(t, engine.third.featureNames, loaded.third.featureNames)

	rows := testRows(t)
	want, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)
	got, err := loaded.PredictOutcomes(rows)
	require.NoError(t, err)

	require.Equal(t, len(want.Probabilities), len(got.Probabilities))
	for key, p := range want.Probabilities {
		assert.Equal(t, p, got.Probabilities[key], "outcome %s", key)
	}
}

func TestLoadMissingArtifacts(t *testing.T) {
	_, err := Load(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrArtifactCorrupt)
}

func TestLoadCorruptArtifact(t *testing.T) {
	engine := trainedEngine(t)
	dir := t.TempDir()
	require.NoError(t, engine.Save(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "second_place.json"), []byte("{truncated"), 0o644))
	_, err := Load(dir, nil)
	require.ErrorIs(t, err, ErrArtifactCorrupt)
}

func TestLoadRejectsInconsistentArtifact(t *testing.T) {
	engine := trainedEngine(t)
	dir := t.TempDir()
	require.NoError(t, engine.Save(dir))

	// Wrong weight count relative to the feature names
	bad := `{"stage":"third_place","feature_names":["a","b"],"weights":[1],"bias":0}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "third_place.json"), []byte(bad), 0o644))
	_, err := Load(dir, nil)
	require.ErrorIs(t, err, ErrArtifactCorrupt)
}
