package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/database"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

// PostgresRacerRepository implements RacerRepository for PostgreSQL
type PostgresRacerRepository struct {
	db *database.DB
}

// NewPostgresRacerRepository creates a new racer repository
func NewPostgresRacerRepository(db *database.DB) RacerRepository {
	return &PostgresRacerRepository{db: db}
}

// Create inserts a new racer entry
func (r *PostgresRacerRepository) Create(ctx context.Context, racer *models.Racer) error {
	query := `
		INSERT INTO racers (id, race_id, lane, registration_number, name, class,
		                    national_win_rate, local_win_rate, motor_second_rate, boat_second_rate,
		                    average_start_timing, exhibition_time, weight, age, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		racer.ID, racer.RaceID, racer.Lane, racer.RegistrationNumber, racer.Name, racer.Class,
		racer.NationalWinRate, racer.LocalWinRate, racer.MotorSecondRate, racer.BoatSecondRate,
		racer.AverageStartTiming, racer.ExhibitionTime, racer.Weight, racer.Age, racer.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create racer: %w", err)
	}

	return nil
}

// GetByRaceID retrieves all racers for a race, ordered by lane
func (r *PostgresRacerRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Racer, error) {
	query := `
		SELECT id, race_id, lane, registration_number, name, class,
		       national_win_rate, local_win_rate, motor_second_rate, boat_second_rate,
		       average_start_timing, exhibition_time, weight, age, metadata,
		       created_at, updated_at
		FROM racers
		WHERE race_id = $1
		ORDER BY lane ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query racers: %w", err)
	}
	defer rows.Close()

	var racers []*models.Racer
	for rows.Next() {
		racer := &models.Racer{}
		err := rows.Scan(
			&racer.ID, &racer.RaceID, &racer.Lane, &racer.RegistrationNumber, &racer.Name, &racer.Class,
			&racer.NationalWinRate, &racer.LocalWinRate, &racer.MotorSecondRate, &racer.BoatSecondRate,
			&racer.AverageStartTiming, &racer.ExhibitionTime, &racer.Weight, &racer.Age, &racer.Metadata,
			&racer.CreatedAt, &racer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan racer: %w", err)
		}
		racers = append(racers, racer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan racers: %w", err)
	}

	return racers, nil
}
