// Package repository provides PostgreSQL data access for races, results,
// odds and stored predictions.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

// RaceRepository defines the interface for race data access
type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error)
	GetWithRacers(ctx context.Context, id uuid.UUID) (*models.Race, error)
	GetUpcoming(ctx context.Context, limit int) ([]*models.Race, error)
	GetFinishedByDateRange(ctx context.Context, start, end time.Time) ([]*models.Race, error)
	Update(ctx context.Context, race *models.Race) error
}

// RacerRepository defines the interface for racer entry data access
type RacerRepository interface {
	Create(ctx context.Context, racer *models.Racer) error
	GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Racer, error)
}

// RaceResultRepository defines the interface for race result data access
type RaceResultRepository interface {
	Insert(ctx context.Context, result *models.RaceResult) error
	GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.RaceResult, error)
}

// OddsRepository defines the interface for trifecta odds data access
type OddsRepository interface {
	InsertBatch(ctx context.Context, odds []*models.TrifectaOdds) error
	GetLatestByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.TrifectaOdds, error)
}

// PredictionRepository defines the interface for stored prediction access
type PredictionRepository interface {
	Insert(ctx context.Context, prediction *models.Prediction) error
	GetLatestByRaceID(ctx context.Context, raceID uuid.UUID) (*models.Prediction, error)
}
