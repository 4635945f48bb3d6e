package repository

import (
	"fmt"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Race       RaceRepository
	Racer      RacerRepository
	RaceResult RaceResultRepository
	Odds       OddsRepository
	Prediction PredictionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Race:       NewPostgresRaceRepository(db),
		Racer:      NewPostgresRacerRepository(db),
		RaceResult: NewPostgresRaceResultRepository(db),
		Odds:       NewPostgresOddsRepository(db),
		Prediction: NewPostgresPredictionRepository(db),
	}, nil
}
