package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// InsertBatch stores a batch of trifecta odds snapshots in one transaction
func (r *PostgresOddsRepository) InsertBatch(ctx context.Context, odds []*models.TrifectaOdds) error {
	if len(odds) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO trifecta_odds (time, race_id, outcome_key, odds)
			VALUES ($1, $2, $3, $4)
		`
		for _, o := range odds {
			if _, err := r.db.GetPool().Exec(ctx, query, o.Time, o.RaceID, o.OutcomeKey, o.Odds); err != nil {
				return fmt.Errorf("failed to insert trifecta odds: %w", err)
			}
		}
		return nil
	})
}

// GetLatestByRaceID retrieves the most recent odds snapshot for every
// outcome of a race
func (r *PostgresOddsRepository) GetLatestByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.TrifectaOdds, error) {
	query := `
		SELECT DISTINCT ON (outcome_key) time, race_id, outcome_key, odds
		FROM trifecta_odds
		WHERE race_id = $1
		ORDER BY outcome_key, time DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trifecta odds: %w", err)
	}
	defer rows.Close()

	var odds []*models.TrifectaOdds
	for rows.Next() {
		o := &models.TrifectaOdds{}
		if err := rows.Scan(&o.Time, &o.RaceID, &o.OutcomeKey, &o.Odds); err != nil {
			return nil, fmt.Errorf("failed to scan trifecta odds: %w", err)
		}
		odds = append(odds, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trifecta odds: %w", err)
	}

	return odds, nil
}
