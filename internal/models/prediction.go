package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Prediction represents a stored trifecta probability table for one race
type Prediction struct {
	ID            uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	RaceID        uuid.UUID       `db:"race_id" json:"race_id" validate:"required,uuid4"`
	ModelVersion  string          `db:"model_version" json:"model_version" validate:"required"`
	Probabilities json.RawMessage `db:"probabilities" json:"probabilities" validate:"required"`
	Degenerate    bool            `db:"degenerate" json:"degenerate"`
	PredictedAt   time.Time       `db:"predicted_at" json:"predicted_at" validate:"required"`
}

// ParseProbabilities parses the probabilities JSON into a key->probability map
func (p *Prediction) ParseProbabilities() (map[string]float64, error) {
	probs := make(map[string]float64)
	if err := json.Unmarshal(p.Probabilities, &probs); err != nil {
		return nil, err
	}
	return probs, nil
}

// TopOutcome returns the outcome key with the highest probability
func (p *Prediction) TopOutcome() (string, float64, error) {
	probs, err := p.ParseProbabilities()
	if err != nil {
		return "", 0, err
	}

	best := ""
	bestProb := -1.0
	for key, prob := range probs {
		// Lexicographic tie-break keeps the result stable across map
		// iteration orders
		if prob > bestProb || (prob == bestProb && key < best) {
			best = key
			bestProb = prob
		}
	}
	return best, bestProb, nil
}
