package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const manifestFile = "manifest.json"

// artifactVersion is bumped on incompatible artifact layout changes
const artifactVersion = 1

// stageArtifact is the persisted form of one fitted stage classifier
type stageArtifact struct {
	Stage        string    `json:"stage"`
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
	TrainedAt    time.Time `json:"trained_at"`
}

// manifest ties the three stage artifacts together as one model unit
type manifest struct {
	Version int       `json:"version"`
	N       int       `json:"n"`
	SavedAt time.Time `json:"saved_at"`
	Stages  []string  `json:"stages"`
}

// Save persists the three stage classifiers and their feature-name metadata
// as a unit under stage-qualified file names
func (e *Engine) Save(dir string) error {
	if e.state != StateFullyTrained {
		return fmt.Errorf("%w: state is %s", ErrModelNotTrained, e.state)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	stages := map[string]*placeClassifier{
		stageFirst:  e.first,
		stageSecond: e.second,
		stageThird:  e.third,
	}
	for stage, clf := range stages {
		if err := writeArtifact(filepath.Join(dir, stage+".json"), clf.artifact()); err != nil {
			return err
		}
	}

	m := manifest{
		Version: artifactVersion,
		N:       e.n,
		SavedAt: time.Now().UTC(),
		Stages:  []string{stageFirst, stageSecond, stageThird},
	}
	if err := writeArtifact(filepath.Join(dir, manifestFile), m); err != nil {
		return err
	}

	e.logger.WithField("dir", dir).Info("Model artifacts saved")
	return nil
}

// Load restores an engine from saved artifacts, including the exact
// feature-name order captured at training time. I/O and decode failures are
// fatal; a partially restored model is never returned.
func Load(dir string, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var m manifest
	if err := readArtifact(filepath.Join(dir, manifestFile), &m); err != nil {
		return nil, err
	}
	if m.Version != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported artifact version %d", ErrArtifactCorrupt, m.Version)
	}
	if m.N < 3 {
		return nil, fmt.Errorf("%w: invalid field size %d", ErrArtifactCorrupt, m.N)
	}

	e := NewEngine(m.N, DefaultTrainingOptions(), logger)
	for _, stage := range []string{stageFirst, stageSecond, stageThird} {
		var art stageArtifact
		if err := readArtifact(filepath.Join(dir, stage+".json"), &art); err != nil {
			return nil, err
		}
		clf, err := art.classifier()
		if err != nil {
			return nil, err
		}
		switch stage {
		case stageFirst:
			e.first = clf
		case stageSecond:
			e.second = clf
		case stageThird:
			e.third = clf
		}
	}

	e.state = StateFullyTrained
	logger.WithFields(logrus.Fields{"dir": dir, "n": m.N}).Info("Model artifacts loaded")
	return e, nil
}

func (c *placeClassifier) artifact() stageArtifact {
	return stageArtifact{
		Stage:        c.stage,
		FeatureNames: c.featureNames,
		Weights:      c.weights,
		Bias:         c.bias,
		Iterations:   c.iterations,
		Converged:    c.converged,
		TrainedAt:    c.trainedAt,
	}
}

func (a stageArtifact) classifier() (*placeClassifier, error) {
	if len(a.FeatureNames) == 0 || len(a.Weights) != len(a.FeatureNames) {
		return nil, fmt.Errorf("%w: %s has %d feature names and %d weights",
			ErrArtifactCorrupt, a.Stage, len(a.FeatureNames), len(a.Weights))
	}
	return &placeClassifier{
		stage:        a.Stage,
		featureNames: a.FeatureNames,
		weights:      a.Weights,
		bias:         a.Bias,
		iterations:   a.Iterations,
		converged:    a.Converged,
		trainedAt:    a.TrainedAt,
	}, nil
}

func writeArtifact(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readArtifact(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	return nil
}
