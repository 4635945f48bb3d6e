package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Racer represents one boat/racer entry in a race
type Racer struct {
	ID                 uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	RaceID             uuid.UUID       `db:"race_id" json:"race_id" validate:"required,uuid4"`
	Lane               int             `db:"lane" json:"lane" validate:"required,min=1,max=6"`
	RegistrationNumber int             `db:"registration_number" json:"registration_number" validate:"required,gt=0"`
	Name               string          `db:"name" json:"name" validate:"required"`
	Class              string          `db:"class" json:"class"`
	NationalWinRate    *float64        `db:"national_win_rate" json:"national_win_rate"`
	LocalWinRate       *float64        `db:"local_win_rate" json:"local_win_rate"`
	MotorSecondRate    *float64        `db:"motor_second_rate" json:"motor_second_rate"`
	BoatSecondRate     *float64        `db:"boat_second_rate" json:"boat_second_rate"`
	AverageStartTiming *float64        `db:"average_start_timing" json:"average_start_timing"`
	ExhibitionTime     *float64        `db:"exhibition_time" json:"exhibition_time"`
	Weight             *float64        `db:"weight" json:"weight"`
	Age                *int            `db:"age" json:"age"`
	Metadata           json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	Race               *Race           `db:"-" json:"race,omitempty"`
}

// GetNationalWinRate returns the national win rate or 0 if nil
func (r *Racer) GetNationalWinRate() float64 {
	if r.NationalWinRate == nil {
		return 0
	}
	return *r.NationalWinRate
}

// GetExhibitionTime returns the exhibition time or 0 if nil
func (r *Racer) GetExhibitionTime() float64 {
	if r.ExhibitionTime == nil {
		return 0
	}
	return *r.ExhibitionTime
}
