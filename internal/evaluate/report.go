package evaluate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// floorProb bounds the log-loss contribution of outcomes the model assigned
// (numerically) zero mass
const floorProb = 1e-12

// Report aggregates evaluation metrics over a date range
type Report struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	RacesEvaluated int       `json:"races_evaluated"`
	Skipped        int       `json:"skipped"`

	// Probabilistic quality
	TrifectaLogLoss float64 `json:"trifecta_log_loss"`
	MeanActualProb  float64 `json:"mean_actual_prob"`

	// Hit rates of the argmax trifecta prediction
	WinHits      int     `json:"win_hits"`
	ExactaHits   int     `json:"exacta_hits"`
	TrifectaHits int     `json:"trifecta_hits"`
	WinRate      float64 `json:"win_rate"`
	ExactaRate   float64 `json:"exacta_rate"`
	TrifectaRate float64 `json:"trifecta_rate"`

	// Flat-stake betting simulation
	BetsPlaced    int             `json:"bets_placed"`
	TotalStaked   decimal.Decimal `json:"total_staked"`
	TotalReturned decimal.Decimal `json:"total_returned"`
	ROI           decimal.Decimal `json:"roi"`

	sumLogLoss    float64
	sumActualProb float64
}

func newReport(cfg Config) *Report {
	return &Report{
		StartDate:     cfg.StartDate,
		EndDate:       cfg.EndDate,
		TotalStaked:   decimal.Zero,
		TotalReturned: decimal.Zero,
		ROI:           decimal.Zero,
	}
}

// recordProbability accumulates the log loss of the realized outcome
func (r *Report) recordProbability(actualProb float64) {
	r.sumActualProb += actualProb
	if actualProb < floorProb {
		actualProb = floorProb
	}
	r.sumLogLoss += -math.Log(actualProb)
}

// recordHits compares the predicted triple against the realized finish order
func (r *Report) recordHits(predictedKey string, order []int) {
	lanes, err := parseOutcomeKey(predictedKey)
	if err != nil {
		return
	}
	if lanes[0] == order[0] {
		r.WinHits++
		if lanes[1] == order[1] {
			r.ExactaHits++
			if lanes[2] == order[2] {
				r.TrifectaHits++
			}
		}
	}
}

// finalize computes the derived rates once all races are recorded
func (r *Report) finalize() {
	if r.RacesEvaluated > 0 {
		n := float64(r.RacesEvaluated)
		r.TrifectaLogLoss = r.sumLogLoss / n
		r.MeanActualProb = r.sumActualProb / n
		r.WinRate = float64(r.WinHits) / n
		r.ExactaRate = float64(r.ExactaHits) / n
		r.TrifectaRate = float64(r.TrifectaHits) / n
	}
	if r.TotalStaked.IsPositive() {
		r.ROI = r.TotalReturned.Sub(r.TotalStaked).Div(r.TotalStaked)
	}
}

// ToJSON exports the report for logging or storage
func (r *Report) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// parseOutcomeKey splits a "first-second-third" key into lane numbers
func parseOutcomeKey(key string) ([3]int, error) {
	var lanes [3]int
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return lanes, fmt.Errorf("malformed outcome key %q", key)
	}
	for i, part := range parts {
		lane, err := strconv.Atoi(part)
		if err != nil {
			return lanes, fmt.Errorf("malformed outcome key %q: %w", key, err)
		}
		lanes[i] = lane
	}
	return lanes, nil
}
