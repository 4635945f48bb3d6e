package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/service"
)

type stubTrainer struct {
	calls int
}

func (t *stubTrainer) Train(ctx context.Context, start, end time.Time, modelDir string) (*predictor.Engine, *service.TrainingReport, error) {
	t.calls++
	engine := predictor.NewEngine(6, predictor.DefaultTrainingOptions(), nil)
	return engine, &service.TrainingReport{EventsBuilt: 10}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestScheduleRetrainingValidatesCron(t *testing.T) {
	s := NewScheduler(&stubTrainer{}, quietLogger())
	err := s.ScheduleRetraining("not a cron expression", 30, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(&stubTrainer{}, quietLogger())
	err := s.Start()
	assert.ErrorContains(t, err, "no jobs scheduled")
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewScheduler(&stubTrainer{}, quietLogger())
	require.NoError(t, s.ScheduleRetraining("0 3 * * *", 30, t.TempDir(), nil))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	// Double start is rejected
	assert.Error(t, s.Start())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// Stop is idempotent
	assert.NoError(t, s.Stop())
}

func TestCannotScheduleWhileRunning(t *testing.T) {
	s := NewScheduler(&stubTrainer{}, quietLogger())
	require.NoError(t, s.ScheduleRetraining("0 3 * * *", 30, t.TempDir(), nil))
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.ScheduleRetraining("0 4 * * *", 30, t.TempDir(), nil)
	assert.Error(t, err)
}

func TestRetrainingJobInvokesTrainerAndCallback(t *testing.T) {
	trainer := &stubTrainer{}
	s := NewScheduler(trainer, quietLogger())

	handedOver := make(chan *predictor.Engine, 1)
	require.NoError(t, s.ScheduleRetraining("@every 1s", 30, t.TempDir(), func(e *predictor.Engine) {
		handedOver <- e
	}))
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case engine := <-handedOver:
		assert.NotNil(t, engine)
		assert.Equal(t, 1, trainer.calls)
	case <-time.After(3 * time.Second):
		t.Fatal("retraining job did not fire")
	}
}
