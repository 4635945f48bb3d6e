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

// PostgresRaceResultRepository implements RaceResultRepository for PostgreSQL
type PostgresRaceResultRepository struct {
	db *database.DB
}

// NewPostgresRaceResultRepository creates a new race result repository
func NewPostgresRaceResultRepository(db *database.DB) RaceResultRepository {
	return &PostgresRaceResultRepository{db: db}
}

// Insert stores a race result
func (r *PostgresRaceResultRepository) Insert(ctx context.Context, result *models.RaceResult) error {
	query := `
		INSERT INTO race_results (time, race_id, winner_lane, positions, trifecta_payout, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		result.Time, result.RaceID, result.WinnerLane, result.Positions,
		result.TrifectaPayout, result.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert race result: %w", err)
	}

	return nil
}

// GetByRaceID retrieves the result for a race
func (r *PostgresRaceResultRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.RaceResult, error) {
	query := `
		SELECT time, race_id, winner_lane, positions, trifecta_payout, status, created_at, updated_at
		FROM race_results
		WHERE race_id = $1
		ORDER BY time DESC
		LIMIT 1
	`

	result := &models.RaceResult{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID).Scan(
		&result.Time, &result.RaceID, &result.WinnerLane, &result.Positions,
		&result.TrifectaPayout, &result.Status, &result.CreatedAt, &result.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRaceResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race result: %w", err)
	}

	return result, nil
}
