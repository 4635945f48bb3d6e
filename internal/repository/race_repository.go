package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

const errScanRace = "failed to scan race: %w"

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Create inserts a new race
func (r *PostgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (id, stadium, race_number, scheduled_start, grade, conditions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.Stadium, race.RaceNumber, race.ScheduledStart,
		race.Grade, race.Conditions, race.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}

	return nil
}

// GetByID retrieves a race by ID
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	query := `
		SELECT id, stadium, race_number, scheduled_start, actual_start, grade,
		       conditions, status, created_at, updated_at
		FROM races WHERE id = $1
	`

	race := &models.Race{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&race.ID, &race.Stadium, &race.RaceNumber, &race.ScheduledStart, &race.ActualStart,
		&race.Grade, &race.Conditions, &race.Status, &race.CreatedAt, &race.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	return race, nil
}

// GetWithRacers retrieves a race and its full field of racers
func (r *PostgresRaceRepository) GetWithRacers(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	race, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	racers, err := NewPostgresRacerRepository(r.db).GetByRaceID(ctx, id)
	if err != nil {
		return nil, err
	}

	race.Racers = racers
	return race, nil
}

// GetUpcoming retrieves upcoming races ordered by scheduled start time
func (r *PostgresRaceRepository) GetUpcoming(ctx context.Context, limit int) ([]*models.Race, error) {
	query := `
		SELECT id, stadium, race_number, scheduled_start, actual_start, grade,
		       conditions, status, created_at, updated_at
		FROM races
		WHERE status = 'scheduled' AND scheduled_start > NOW()
		ORDER BY scheduled_start ASC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming races: %w", err)
	}
	defer rows.Close()

	return scanRaces(rows)
}

// GetFinishedByDateRange retrieves finished races within a date range,
// with racers attached, for training set assembly
func (r *PostgresRaceRepository) GetFinishedByDateRange(ctx context.Context, start, end time.Time) ([]*models.Race, error) {
	query := `
		SELECT id, stadium, race_number, scheduled_start, actual_start, grade,
		       conditions, status, created_at, updated_at
		FROM races
		WHERE status = 'finished' AND scheduled_start BETWEEN $1 AND $2
		ORDER BY scheduled_start ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished races: %w", err)
	}
	defer rows.Close()

	races, err := scanRaces(rows)
	if err != nil {
		return nil, err
	}

	racerRepo := NewPostgresRacerRepository(r.db)
	for _, race := range races {
		racers, err := racerRepo.GetByRaceID(ctx, race.ID)
		if err != nil {
			return nil, err
		}
		race.Racers = racers
	}

	return races, nil
}

// Update updates an existing race
func (r *PostgresRaceRepository) Update(ctx context.Context, race *models.Race) error {
	query := `
		UPDATE races
		SET stadium = $2, race_number = $3, scheduled_start = $4, actual_start = $5,
		    grade = $6, conditions = $7, status = $8, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.Stadium, race.RaceNumber, race.ScheduledStart, race.ActualStart,
		race.Grade, race.Conditions, race.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update race: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanRaces(rows pgx.Rows) ([]*models.Race, error) {
	var races []*models.Race
	for rows.Next() {
		race := &models.Race{}
		err := rows.Scan(
			&race.ID, &race.Stadium, &race.RaceNumber, &race.ScheduledStart, &race.ActualStart,
			&race.Grade, &race.Conditions, &race.Status, &race.CreatedAt, &race.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, race)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errScanRace, err)
	}
	return races, nil
}
