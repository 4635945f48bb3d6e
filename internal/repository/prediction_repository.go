package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert stores a computed trifecta probability table
func (r *PostgresPredictionRepository) Insert(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (id, race_id, model_version, probabilities, degenerate, predicted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.RaceID, prediction.ModelVersion,
		prediction.Probabilities, prediction.Degenerate, prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// GetLatestByRaceID retrieves the most recent stored prediction for a race
func (r *PostgresPredictionRepository) GetLatestByRaceID(ctx context.Context, raceID uuid.UUID) (*models.Prediction, error) {
	query := `
		SELECT id, race_id, model_version, probabilities, degenerate, predicted_at
		FROM predictions
		WHERE race_id = $1
		ORDER BY predicted_at DESC
		LIMIT 1
	`

	prediction := &models.Prediction{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID).Scan(
		&prediction.ID, &prediction.RaceID, &prediction.ModelVersion,
		&prediction.Probabilities, &prediction.Degenerate, &prediction.PredictedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return prediction, nil
}
