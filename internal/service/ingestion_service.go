package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/metrics"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
)

// racesPerMeeting is the standard number of races held at one stadium per day
const racesPerMeeting = 12

// RaceCardFetcher fetches one race card from the official programs API
type RaceCardFetcher interface {
	FetchRaceCard(ctx context.Context, date time.Time, stadium string, raceNumber int) (*models.Race, error)
}

// IngestionService pulls race cards from the data source into the database
type IngestionService struct {
	fetcher   RaceCardFetcher
	raceRepo  repository.RaceRepository
	racerRepo repository.RacerRepository
	logger    *logrus.Logger
}

// NewIngestionService creates an ingestion service
func NewIngestionService(
	fetcher RaceCardFetcher,
	raceRepo repository.RaceRepository,
	racerRepo repository.RacerRepository,
	logger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		fetcher:   fetcher,
		raceRepo:  raceRepo,
		racerRepo: racerRepo,
		logger:    logger,
	}
}

// IngestionReport summarizes one ingestion run
type IngestionReport struct {
	RacesStored int
	NotFound    int
	Errors      int
}

// IngestDate fetches and stores every race card for the given stadiums on
// one calendar day. A missing card means the meeting has no such race and
// ends the stadium's scan; other failures are counted and skipped.
func (s *IngestionService) IngestDate(ctx context.Context, date time.Time, stadiums []string) (*IngestionReport, error) {
	report := &IngestionReport{}
	for _, stadium := range stadiums {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.ingestMeeting(ctx, date, stadium, report); err != nil {
			return report, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"date":      date.Format("2006-01-02"),
		"stored":    report.RacesStored,
		"not_found": report.NotFound,
		"errors":    report.Errors,
	}).Info("Ingestion run completed")
	return report, nil
}

func (s *IngestionService) ingestMeeting(ctx context.Context, date time.Time, stadium string, report *IngestionReport) error {
	for raceNumber := 1; raceNumber <= racesPerMeeting; raceNumber++ {
		race, err := s.fetcher.FetchRaceCard(ctx, date, stadium, raceNumber)
		if errors.Is(err, models.ErrNotFound) {
			report.NotFound++
			return nil
		}
		if err != nil {
			report.Errors++
			s.logger.WithFields(logrus.Fields{
				"stadium":     stadium,
				"race_number": raceNumber,
				"error":       err.Error(),
			}).Warn("Failed to fetch race card")
			continue
		}

		if err := s.storeRace(ctx, race); err != nil {
			report.Errors++
			s.logger.WithFields(logrus.Fields{
				"stadium":     stadium,
				"race_number": raceNumber,
				"error":       err.Error(),
			}).Warn("Failed to store race card")
			continue
		}
		report.RacesStored++
		metrics.RecordRaceIngested()
	}
	return nil
}

func (s *IngestionService) storeRace(ctx context.Context, race *models.Race) error {
	if err := s.raceRepo.Create(ctx, race); err != nil {
		return fmt.Errorf("failed to store race: %w", err)
	}
	for _, racer := range race.Racers {
		if err := s.racerRepo.Create(ctx, racer); err != nil {
			return fmt.Errorf("failed to store racer in lane %d: %w", racer.Lane, err)
		}
	}
	return nil
}
