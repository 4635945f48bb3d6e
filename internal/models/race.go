package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LaneCount is the number of boats in a standard race.
const LaneCount = 6

// Race represents one race at a stadium
type Race struct {
	ID             uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Stadium        string          `db:"stadium" json:"stadium" validate:"required"`
	RaceNumber     int             `db:"race_number" json:"race_number" validate:"required,min=1,max=12"`
	ScheduledStart time.Time       `db:"scheduled_start" json:"scheduled_start" validate:"required"`
	ActualStart    *time.Time      `db:"actual_start" json:"actual_start"`
	Grade          string          `db:"grade" json:"grade"`
	Conditions     json.RawMessage `db:"conditions" json:"conditions"`
	Status         string          `db:"status" json:"status" validate:"oneof=scheduled started finished cancelled"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	Racers         []*Racer        `db:"-" json:"racers,omitempty"`
}

// IsUpcoming checks if the race hasn't started yet
func (r *Race) IsUpcoming() bool {
	return r.ActualStart == nil && r.Status == "scheduled"
}

// IsFinished checks if the race has completed
func (r *Race) IsFinished() bool {
	return r.Status == "finished"
}

// TimeToStart returns the duration until race start
func (r *Race) TimeToStart() time.Duration {
	return time.Until(r.ScheduledStart)
}

// HasFullField checks that exactly LaneCount racers are attached
func (r *Race) HasFullField() bool {
	return len(r.Racers) == LaneCount
}
