package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RaceResult represents the outcome of a completed race
type RaceResult struct {
	Time           time.Time       `db:"time" json:"time"`
	RaceID         uuid.UUID       `db:"race_id" json:"race_id" validate:"required"`
	WinnerLane     *int            `db:"winner_lane" json:"winner_lane"`
	Positions      json.RawMessage `db:"positions" json:"positions"` // JSON array of lane finish positions
	TrifectaPayout decimal.Decimal `db:"trifecta_payout" json:"trifecta_payout"`
	Status         string          `db:"status" json:"status" validate:"required,oneof=pending completed cancelled"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// PositionsData represents the structured positions data
type PositionsData struct {
	Lanes []LanePosition `json:"lanes"`
}

// LanePosition represents one lane's final position in the race
type LanePosition struct {
	RacerID  uuid.UUID `json:"racer_id"`
	Lane     int       `json:"lane"`
	Position int       `json:"position"`
	RaceTime *float64  `json:"race_time,omitempty"`
}

// ParsePositions parses the positions JSON data
func (rr *RaceResult) ParsePositions() (*PositionsData, error) {
	if rr.Positions == nil {
		return nil, ErrInvalidRaceResult
	}

	var posData PositionsData
	if err := json.Unmarshal(rr.Positions, &posData); err != nil {
		return nil, err
	}

	return &posData, nil
}

// FinishOrder returns lane numbers ordered by finishing position (1st first).
// Errors if positions are missing, tied, or not a permutation of 1..LaneCount.
func (rr *RaceResult) FinishOrder() ([]int, error) {
	posData, err := rr.ParsePositions()
	if err != nil {
		return nil, err
	}
	if len(posData.Lanes) != LaneCount {
		return nil, fmt.Errorf("%w: expected %d positions, got %d", ErrInvalidRaceResult, LaneCount, len(posData.Lanes))
	}

	order := make([]int, LaneCount)
	seen := make([]bool, LaneCount)
	for _, lp := range posData.Lanes {
		if lp.Position < 1 || lp.Position > LaneCount || seen[lp.Position-1] {
			return nil, fmt.Errorf("%w: invalid or duplicate position %d", ErrInvalidRaceResult, lp.Position)
		}
		seen[lp.Position-1] = true
		order[lp.Position-1] = lp.Lane
	}
	return order, nil
}

// Errors
var (
	ErrRaceResultNotFound  = NewValidationError("race_result_not_found", "race result not found")
	ErrInvalidRaceResult   = NewValidationError("invalid_race_result", "invalid race result data")
	ErrRaceResultDuplicate = NewValidationError("race_result_duplicate", "race result already exists for this race")
)
