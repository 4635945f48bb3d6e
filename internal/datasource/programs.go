package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/config"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
)

// ProgramsClient fetches race cards from the official programs API
type ProgramsClient struct {
	baseURL string
	apiKey  string
	http    *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewProgramsClient creates a race-card client from configuration
func NewProgramsClient(cfg *config.DataSourceConfig, logger *logrus.Logger) *ProgramsClient {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MaxRetries
	httpCfg.RateLimit = cfg.RateLimit
	httpCfg.CircuitBreakerMax = cfg.CircuitBreakerMax

	return &ProgramsClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    NewRateLimitedHTTPClient(httpCfg, nil),
		logger:  logger,
	}
}

// raceCardResponse mirrors the programs API payload
type raceCardResponse struct {
	Stadium        string         `json:"stadium"`
	RaceNumber     int            `json:"race_number"`
	ScheduledStart time.Time      `json:"scheduled_start"`
	Grade          string         `json:"grade"`
	Entries        []raceCardBoat `json:"entries"`
}

type raceCardBoat struct {
	Lane               int      `json:"lane"`
	RegistrationNumber int      `json:"registration_number"`
	Name               string   `json:"name"`
	Class              string   `json:"class"`
	NationalWinRate    *float64 `json:"national_win_rate"`
	LocalWinRate       *float64 `json:"local_win_rate"`
	MotorSecondRate    *float64 `json:"motor_second_rate"`
	BoatSecondRate     *float64 `json:"boat_second_rate"`
	AverageStartTiming *float64 `json:"average_start_timing"`
	ExhibitionTime     *float64 `json:"exhibition_time"`
	Weight             *float64 `json:"weight"`
	Age                *int     `json:"age"`
}

// FetchRaceCard retrieves one race card and normalizes it into models
func (c *ProgramsClient) FetchRaceCard(ctx context.Context, date time.Time, stadium string, raceNumber int) (*models.Race, error) {
	url := fmt.Sprintf("%s/programs/%s/%s/%d", c.baseURL, date.Format("20060102"), stadium, raceNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build race card request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch race card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, models.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("race card request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read race card response: %w", err)
	}

	var card raceCardResponse
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to parse race card: %w", err)
	}

	race := normalizeRaceCard(&card)
	c.logger.WithFields(logrus.Fields{
		"stadium":     race.Stadium,
		"race_number": race.RaceNumber,
		"entries":     len(race.Racers),
	}).Debug("Fetched race card")
	return race, nil
}

// normalizeRaceCard converts an API payload into domain models
func normalizeRaceCard(card *raceCardResponse) *models.Race {
	race := &models.Race{
		ID:             uuid.New(),
		Stadium:        card.Stadium,
		RaceNumber:     card.RaceNumber,
		ScheduledStart: card.ScheduledStart,
		Grade:          card.Grade,
		Status:         "scheduled",
		CreatedAt:      time.Now().UTC(),
	}

	race.Racers = make([]*models.Racer, 0, len(card.Entries))
	for _, entry := range card.Entries {
		race.Racers = append(race.Racers, &models.Racer{
			ID:                 uuid.New(),
			RaceID:             race.ID,
			Lane:               entry.Lane,
			RegistrationNumber: entry.RegistrationNumber,
			Name:               entry.Name,
			Class:              entry.Class,
			NationalWinRate:    entry.NationalWinRate,
			LocalWinRate:       entry.LocalWinRate,
			MotorSecondRate:    entry.MotorSecondRate,
			BoatSecondRate:     entry.BoatSecondRate,
			AverageStartTiming: entry.AverageStartTiming,
			ExhibitionTime:     entry.ExhibitionTime,
			Weight:             entry.Weight,
			Age:                entry.Age,
		})
	}

	return race
}

// Close releases the underlying HTTP resources
func (c *ProgramsClient) Close() error {
	return c.http.Close()
}
