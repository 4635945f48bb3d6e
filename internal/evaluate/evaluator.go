// Package evaluate replays finished races through a trained engine and
// measures probabilistic quality and flat-stake betting performance.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/features"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/repository"
)

// Config controls an evaluation run
type Config struct {
	StartDate time.Time
	EndDate   time.Time
	// Stake is the flat amount wagered on the top predicted trifecta of
	// every race that has odds for that outcome
	Stake decimal.Decimal
}

// DefaultConfig returns an evaluation config with a 100-unit flat stake
func DefaultConfig(start, end time.Time) Config {
	return Config{StartDate: start, EndDate: end, Stake: decimal.NewFromInt(100)}
}

// Evaluator scores a trained engine against held-out finished races
type Evaluator struct {
	engine     *predictor.Engine
	raceRepo   repository.RaceRepository
	resultRepo repository.RaceResultRepository
	oddsRepo   repository.OddsRepository
	logger     *logrus.Logger
}

// NewEvaluator creates an evaluator. oddsRepo may be nil, in which case
// betting metrics are skipped.
func NewEvaluator(
	engine *predictor.Engine,
	raceRepo repository.RaceRepository,
	resultRepo repository.RaceResultRepository,
	oddsRepo repository.OddsRepository,
	logger *logrus.Logger,
) (*Evaluator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{
		engine:     engine,
		raceRepo:   raceRepo,
		resultRepo: resultRepo,
		oddsRepo:   oddsRepo,
		logger:     logger,
	}, nil
}

// Run replays every finished race in the configured range
func (e *Evaluator) Run(ctx context.Context, cfg Config) (*Report, error) {
	races, err := e.raceRepo.GetFinishedByDateRange(ctx, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load races: %w", err)
	}

	report := newReport(cfg)
	for _, race := range races {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.evaluateRace(ctx, race, cfg, report); err != nil {
			report.Skipped++
			e.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"error":   err.Error(),
			}).Warn("Skipping race during evaluation")
		}
	}
	report.finalize()

	e.logger.WithFields(logrus.Fields{
		"races":            report.RacesEvaluated,
		"skipped":          report.Skipped,
		"trifecta_logloss": report.TrifectaLogLoss,
		"trifecta_hits":    report.TrifectaHits,
		"roi":              report.ROI.String(),
	}).Info("Evaluation run completed")
	return report, nil
}

func (e *Evaluator) evaluateRace(ctx context.Context, race *models.Race, cfg Config, report *Report) error {
	if !race.HasFullField() {
		return fmt.Errorf("incomplete field: %d racers", len(race.Racers))
	}

	result, err := e.resultRepo.GetByRaceID(ctx, race.ID)
	if err != nil {
		return fmt.Errorf("no result: %w", err)
	}
	order, err := result.FinishOrder()
	if err != nil {
		return err
	}
	actualKey := fmt.Sprintf("%d-%d-%d", order[0], order[1], order[2])

	rows, err := features.BuildEventRows(race.Racers)
	if err != nil {
		return err
	}
	table, err := e.engine.PredictOutcomes(rows)
	if err != nil {
		return err
	}

	predictedKey := topOutcome(table)

	// The bet step runs before any aggregate is touched so that a failing
	// race leaves the report untouched when the caller counts it as skipped.
	if e.oddsRepo != nil {
		if err := e.recordBet(ctx, race, predictedKey, actualKey, cfg, report); err != nil {
			return err
		}
	}

	report.recordProbability(table.Probabilities[actualKey])
	report.recordHits(predictedKey, order)
	report.RacesEvaluated++
	return nil
}

// recordBet simulates a flat-stake wager on the top predicted trifecta
func (e *Evaluator) recordBet(ctx context.Context, race *models.Race, predictedKey, actualKey string, cfg Config, report *Report) error {
	odds, err := e.oddsRepo.GetLatestByRaceID(ctx, race.ID)
	if errors.Is(err, models.ErrNotFound) {
		// A race without odds rows still counts toward the probabilistic
		// metrics; there is simply no market to bet into.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load odds: %w", err)
	}

	var predictedOdds decimal.Decimal
	found := false
	for _, o := range odds {
		if o.OutcomeKey == predictedKey {
			predictedOdds = o.Odds
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	report.BetsPlaced++
	report.TotalStaked = report.TotalStaked.Add(cfg.Stake)
	if predictedKey == actualKey {
		report.TotalReturned = report.TotalReturned.Add(cfg.Stake.Mul(predictedOdds))
	}
	return nil
}

// topOutcome returns the highest-probability key of a table
func topOutcome(table *predictor.OutcomeTable) string {
	best := ""
	bestProb := math.Inf(-1)
	for key, prob := range table.Probabilities {
		if prob > bestProb || (prob == bestProb && key < best) {
			best = key
			bestProb = prob
		}
	}
	return best
}
