package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/features"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/logger"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/metrics"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
)

// PredictionService runs the trained engine against race cards and caches
// the resulting probability tables per race and model version
type PredictionService struct {
	mu             sync.RWMutex
	engine         *predictor.Engine
	raceRepo       repository.RaceRepository
	predictionRepo repository.PredictionRepository
	cache          *gocache.Cache
	storeResults   bool
	logger         *logrus.Logger
	predictionLog  *logger.PredictionLogger
}

// PredictionServiceConfig tunes caching and persistence behaviour
type PredictionServiceConfig struct {
	CacheTTL     time.Duration
	StoreResults bool
}

// NewPredictionService creates a prediction service around a trained engine
func NewPredictionService(
	engine *predictor.Engine,
	raceRepo repository.RaceRepository,
	predictionRepo repository.PredictionRepository,
	cfg PredictionServiceConfig,
	baseLogger *logrus.Logger,
) *PredictionService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PredictionService{
		engine:         engine,
		raceRepo:       raceRepo,
		predictionRepo: predictionRepo,
		cache:          gocache.New(ttl, 2*ttl),
		storeResults:   cfg.StoreResults,
		logger:         baseLogger,
		predictionLog:  logger.NewPredictionLogger(baseLogger),
	}
}

// ReplaceEngine swaps in a freshly trained engine. In-flight predictions
// finish against the old one; cached tables stay keyed by the old version.
func (s *PredictionService) ReplaceEngine(engine *predictor.Engine) {
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
}

func (s *PredictionService) currentEngine() *predictor.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ModelReady reports whether the underlying engine can serve predictions
func (s *PredictionService) ModelReady() bool {
	engine := s.currentEngine()
	return engine != nil && engine.State() == predictor.StateFullyTrained
}

// ModelVersion identifies the loaded model by its training timestamp
func (s *PredictionService) ModelVersion() string {
	return fmt.Sprintf("v1-%s", s.currentEngine().TrainedAt().UTC().Format("20060102T150405Z"))
}

// PredictRace fetches the race card, scores it and returns the stored
// prediction record. Repeated calls within the cache TTL are served from
// memory without re-running the engine.
func (s *PredictionService) PredictRace(ctx context.Context, raceID uuid.UUID) (*models.Prediction, error) {
	started := time.Now()
	cacheKey := fmt.Sprintf("%s:%s", raceID, s.ModelVersion())
	if cached, ok := s.cache.Get(cacheKey); ok {
		prediction := cached.(*models.Prediction)
		s.logCompleted(prediction, true, started)
		return prediction, nil
	}

	race, err := s.raceRepo.GetWithRacers(ctx, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch race %s: %w", raceID, err)
	}

	prediction, err := s.PredictCard(ctx, race)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, prediction, gocache.DefaultExpiration)
	s.logCompleted(prediction, false, started)
	return prediction, nil
}

func (s *PredictionService) logCompleted(prediction *models.Prediction, cacheHit bool, started time.Time) {
	elapsed := time.Since(started)
	if !cacheHit {
		metrics.RecordPredictionLatency(elapsed.Seconds())
	}
	top, prob, err := prediction.TopOutcome()
	if err != nil {
		return
	}
	probs, _ := prediction.ParseProbabilities()
	s.predictionLog.LogPrediction(prediction.RaceID.String(), len(probs), top, prob, cacheHit, float64(elapsed.Milliseconds()))
}

// PredictCard scores an already-loaded race card
func (s *PredictionService) PredictCard(ctx context.Context, race *models.Race) (*models.Prediction, error) {
	rows, err := features.BuildEventRows(race.Racers)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature rows for race %s: %w", race.ID, err)
	}

	table, err := s.currentEngine().PredictOutcomes(rows)
	if err != nil {
		return nil, fmt.Errorf("prediction failed for race %s: %w", race.ID, err)
	}

	probsJSON, err := json.Marshal(table.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode probabilities: %w", err)
	}

	prediction := &models.Prediction{
		ID:            uuid.New(),
		RaceID:        race.ID,
		ModelVersion:  s.ModelVersion(),
		Probabilities: probsJSON,
		Degenerate:    len(table.Degenerate) > 0,
		PredictedAt:   time.Now().UTC(),
	}

	if s.storeResults && s.predictionRepo != nil {
		if err := s.predictionRepo.Insert(ctx, prediction); err != nil {
			// Storage is best effort; the caller still gets the table
			s.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"error":   err.Error(),
			}).Warn("Failed to store prediction")
		}
	}

	return prediction, nil
}
