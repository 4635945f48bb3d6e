// Package features maps racer attributes to the schema-stable feature rows
// consumed by the prediction engine.
package features

import (
	"fmt"
	"sort"

	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/models"
	"github.com/nodeyakabe/boatrace-predictor-sub003/internal/predictor"
)

// Feature names, in schema order. The order is part of the model contract:
// classifiers capture it at training time and expect it at inference.
var featureNames = []string{
	"lane",
	"national_win_rate",
	"local_win_rate",
	"motor_second_rate",
	"boat_second_rate",
	"avg_start_timing",
	"exhibition_time",
	"weight",
	"age",
}

// Names returns the feature schema in order
func Names() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// BuildRow converts one racer entry into a feature row. Nil attributes map
// to 0, matching the engine's neutral default for missing features.
func BuildRow(racer *models.Racer) (predictor.FeatureRow, error) {
	values := []float64{
		float64(racer.Lane),
		deref(racer.NationalWinRate),
		deref(racer.LocalWinRate),
		deref(racer.MotorSecondRate),
		deref(racer.BoatSecondRate),
		deref(racer.AverageStartTiming),
		deref(racer.ExhibitionTime),
		deref(racer.Weight),
		derefInt(racer.Age),
	}

	return predictor.NewFeatureRow(fmt.Sprintf("%d", racer.Lane), featureNames, values)
}

// BuildEventRows converts a full race field into engine rows, ordered by lane
func BuildEventRows(racers []*models.Racer) ([]predictor.FeatureRow, error) {
	sorted := make([]*models.Racer, len(racers))
	copy(sorted, racers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lane < sorted[j].Lane })

	rows := make([]predictor.FeatureRow, len(sorted))
	for i, racer := range sorted {
		row, err := BuildRow(racer)
		if err != nil {
			return nil, fmt.Errorf("build features for lane %d: %w", racer.Lane, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// BuildTrainingEvent converts a finished race and its result into a labeled
// training event. The finish order supplies the ground-truth ranks.
func BuildTrainingEvent(race *models.Race, result *models.RaceResult) (predictor.TrainingEvent, error) {
	order, err := result.FinishOrder()
	if err != nil {
		return predictor.TrainingEvent{}, fmt.Errorf("race %s: %w", race.ID, err)
	}

	rankByLane := make(map[int]int, len(order))
	for pos, lane := range order {
		rankByLane[lane] = pos + 1
	}

	sorted := make([]*models.Racer, len(race.Racers))
	copy(sorted, race.Racers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lane < sorted[j].Lane })

	labeled := make([]predictor.LabeledRow, len(sorted))
	for i, racer := range sorted {
		row, err := BuildRow(racer)
		if err != nil {
			return predictor.TrainingEvent{}, fmt.Errorf("build features for lane %d: %w", racer.Lane, err)
		}
		rank, ok := rankByLane[racer.Lane]
		if !ok {
			return predictor.TrainingEvent{}, fmt.Errorf("race %s: no finish position for lane %d", race.ID, racer.Lane)
		}
		labeled[i] = predictor.LabeledRow{Row: row, Rank: rank}
	}

	return predictor.TrainingEvent{EventKey: race.ID.String(), Rows: labeled}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
