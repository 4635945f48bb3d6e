package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrifectaOdds represents a point-in-time snapshot of trifecta odds for one
// ordered outcome ("first-second-third" lane key).
type TrifectaOdds struct {
	Time       time.Time       `db:"time" json:"time" validate:"required"`
	RaceID     uuid.UUID       `db:"race_id" json:"race_id" validate:"required,uuid4"`
	OutcomeKey string          `db:"outcome_key" json:"outcome_key" validate:"required"`
	Odds       decimal.Decimal `db:"odds" json:"odds"`
}

// ImpliedProbability returns the implied probability from the odds
func (o *TrifectaOdds) ImpliedProbability() float64 {
	odds, _ := o.Odds.Float64()
	if odds <= 0 {
		return 0
	}
	return 1.0 / odds
}
