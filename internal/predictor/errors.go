// Package predictor implements the conditional-rank probability engine that
// turns three staged binary classifiers into a full trifecta distribution.
package predictor

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotTrained indicates predict was called before train or load completed
	ErrModelNotTrained = errors.New("model not fully trained")

	// ErrNoTrainingData indicates no valid training events remained after validation
	ErrNoTrainingData = errors.New("no valid training events")

	// ErrArtifactCorrupt indicates a persisted stage artifact could not be restored
	ErrArtifactCorrupt = errors.New("model artifact corrupt or missing")
)

// InputSizeError indicates an event did not contain exactly N feature rows
type InputSizeError struct {
	Want int
	Got  int
}

// Error implements the error interface
func (e *InputSizeError) Error() string {
	return fmt.Sprintf("event must contain exactly %d rows, got %d", e.Want, e.Got)
}

// StageStateError indicates a pipeline stage was invoked out of order
type StageStateError struct {
	Stage string
	State State
}

// Error implements the error interface
func (e *StageStateError) Error() string {
	return fmt.Sprintf("cannot train %s stage in state %s", e.Stage, e.State)
}
