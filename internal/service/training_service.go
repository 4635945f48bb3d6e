// Package service wires repositories, the feature builder and the prediction
// engine into the training and prediction workflows the binaries expose.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/features"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
)

// TrainingService assembles historical events and fits the trifecta engine
type TrainingService struct {
	raceRepo    repository.RaceRepository
	resultRepo  repository.RaceResultRepository
	fieldSize   int
	opts        predictor.TrainingOptions
	logger      *logrus.Logger
	trainingLog *logger.PredictionLogger
}

// NewTrainingService creates a training service
func NewTrainingService(
	raceRepo repository.RaceRepository,
	resultRepo repository.RaceResultRepository,
	fieldSize int,
	opts predictor.TrainingOptions,
	baseLogger *logrus.Logger,
) *TrainingService {
	return &TrainingService{
		raceRepo:    raceRepo,
		resultRepo:  resultRepo,
		fieldSize:   fieldSize,
		opts:        opts,
		logger:      baseLogger,
		trainingLog: logger.NewPredictionLogger(baseLogger),
	}
}

// TrainingReport summarizes one training run
type TrainingReport struct {
	RacesScanned int
	EventsBuilt  int
	Skipped      int
	TrainedAt    time.Time
	ModelDir     string
}

// Train fetches finished races in the date range, builds labeled training
// events and fits a fresh engine, persisting its artifacts to modelDir
func (s *TrainingService) Train(ctx context.Context, start, end time.Time, modelDir string) (*predictor.Engine, *TrainingReport, error) {
	runStarted := time.Now()
	s.logger.WithFields(logrus.Fields{
		"start":      start.Format("2006-01-02"),
		"end":        end.Format("2006-01-02"),
		"field_size": s.fieldSize,
		"schema":     features.Names(),
	}).Info("Training run started")

	races, err := s.raceRepo.GetFinishedByDateRange(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch finished races: %w", err)
	}

	report := &TrainingReport{RacesScanned: len(races), ModelDir: modelDir}
	events, err := s.buildEvents(ctx, races, report)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return nil, nil, fmt.Errorf("%w: no usable races between %s and %s",
			predictor.ErrNoTrainingData, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	engine := predictor.NewEngine(s.fieldSize, s.opts, s.logger)
	if err := engine.Train(events); err != nil {
		return nil, nil, fmt.Errorf("training failed: %w", err)
	}

	if err := engine.Save(modelDir); err != nil {
		return nil, nil, fmt.Errorf("failed to persist model: %w", err)
	}

	report.EventsBuilt = len(events)
	report.TrainedAt = engine.TrainedAt()
	s.trainingLog.LogTraining(report.EventsBuilt, report.Skipped, time.Since(runStarted).Seconds(), modelDir)
	return engine, report, nil
}

// buildEvents converts finished races into training events, skipping races
// with missing results or malformed fields rather than aborting the run
func (s *TrainingService) buildEvents(ctx context.Context, races []*models.Race, report *TrainingReport) ([]predictor.TrainingEvent, error) {
	events := make([]predictor.TrainingEvent, 0, len(races))
	for _, race := range races {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !race.HasFullField() {
			report.Skipped++
			s.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"racers":  len(race.Racers),
			}).Warn("Skipping race with incomplete field")
			continue
		}

		result, err := s.resultRepo.GetByRaceID(ctx, race.ID)
		if err != nil {
			report.Skipped++
			s.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"error":   err.Error(),
			}).Warn("Skipping race without result")
			continue
		}

		event, err := features.BuildTrainingEvent(race, result)
		if err != nil {
			report.Skipped++
			s.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"error":   err.Error(),
			}).Warn("Skipping race with malformed finish order")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
