// Package scheduler runs periodic model retraining on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/metrics"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/service"
)

// Trainer fits a fresh engine over a date range and persists its artifacts
type Trainer interface {
	Train(ctx context.Context, start, end time.Time, modelDir string) (*predictor.Engine, *service.TrainingReport, error)
}

// Scheduler manages scheduled retraining jobs
type Scheduler struct {
	cron            *cron.Cron
	trainer         Trainer
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(trainer Trainer, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		trainer:         trainer,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleRetraining schedules a recurring retraining job over a trailing
// window of lookbackDays. onTrained is invoked with each freshly fitted
// engine; pass nil if no live handover is needed.
func (s *Scheduler) ScheduleRetraining(cronExpression string, lookbackDays int, modelDir string, onTrained func(*predictor.Engine)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if lookbackDays <= 0 {
		lookbackDays = 90
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()

		endDate := time.Now()
		startDate := endDate.AddDate(0, 0, -lookbackDays)

		s.logger.WithFields(logrus.Fields{
			"start": startDate.Format("2006-01-02"),
			"end":   endDate.Format("2006-01-02"),
		}).Info("Starting scheduled retraining")

		started := time.Now()
		engine, report, err := s.trainer.Train(ctx, startDate, endDate, modelDir)
		if err != nil {
			metrics.RecordTrainingRun("failure", time.Since(started).Seconds())
			s.logger.WithError(err).Error("Scheduled retraining failed")
			return
		}

		metrics.RecordTrainingRun("success", time.Since(started).Seconds())
		metrics.UpdateTrainingEventsUsed(float64(report.EventsBuilt))
		metrics.UpdateModelTimestamp(float64(engine.TrainedAt().Unix()))

		if onTrained != nil {
			onTrained(engine)
		}
		s.logger.WithFields(logrus.Fields{
			"events_built": report.EventsBuilt,
			"skipped":      report.Skipped,
		}).Info("Scheduled retraining completed")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled retraining job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs up to the
// graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}
