package predictor

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFeatureNames = []string{"national_win_rate", "motor_second_rate", "avg_start_timing"}

func testRow(t *testing.T, id string, values ...float64) FeatureRow {
	t.Helper()
	row, err := NewFeatureRow(id, testFeatureNames, values)
	require.NoError(t, err)
	return row
}

// testEvent builds a labeled event from a finish order expressed as lane
// indices (finishOrder[0] is the winning row index).
func testEvent(t *testing.T, key string, rows []FeatureRow, finishOrder []int) TrainingEvent {
	t.Helper()
	labeled := make([]LabeledRow, len(rows))
	for pos, idx := range finishOrder {
		labeled[idx] = LabeledRow{Row: rows[idx], Rank: pos + 1}
	}
	return TrainingEvent{EventKey: key, Rows: labeled}
}

func testRows(t *testing.T) []FeatureRow {
	t.Helper()
	rows := make([]FeatureRow, 6)
	for i := 0; i < 6; i++ {
		strength := float64(6-i) / 6.0
		rows[i] = testRow(t, fmt.Sprintf("%d", i+1), strength, 0.5+0.05*float64(i), 0.15+0.01*float64(i))
	}
	return rows
}

func testEvents(t *testing.T) []TrainingEvent {
	t.Helper()
	rows := testRows(t)
	orders := [][]int{
		{0, 1, 2, 3, 4, 5},
		{0, 2, 1, 3, 5, 4},
		{1, 0, 2, 4, 3, 5},
		{0, 1, 3, 2, 4, 5},
		{2, 0, 1, 3, 4, 5},
		{0, 3, 1, 2, 5, 4},
		{1, 2, 0, 3, 4, 5},
		{0, 1, 2, 4, 3, 5},
	}
	events := make([]TrainingEvent, len(orders))
	for i, order := range orders {
		events[i] = testEvent(t, fmt.Sprintf("race-%d", i), rows, order)
	}
	return events
}

func trainedEngine(t *testing.T) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	engine := NewEngine(6, DefaultTrainingOptions(), logger)
	require.NoError(t, engine.Train(testEvents(t)))
	require.Equal(t, StateFullyTrained, engine.State())
	return engine
}

func TestTrainAdvancesStateMachine(t *testing.T) {
	engine := NewEngine(6, DefaultTrainingOptions(), nil)
	assert.Equal(t, StateUntrained, engine.State())

	require.NoError(t, engine.Train(testEvents(t)))
	assert.Equal(t, StateFullyTrained, engine.State())
}

func TestTrainStagesAreSequential(t *testing.T) {
	engine := NewEngine(6, DefaultTrainingOptions(), nil)
	events := testEvents(t)

	err := engine.trainSecondStage(events)
	var stateErr *StageStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, stageSecond, stateErr.Stage)

	err = engine.trainThirdStage(events)
	require.ErrorAs(t, err, &stateErr)
}

func TestTrainRejectsInvalidEvents(t *testing.T) {
	rows := testRows(t)

	short := TrainingEvent{EventKey: "short", Rows: []LabeledRow{{Row: rows[0], Rank: 1}}}
	tied := testEvent(t, "tied", rows, []int{0, 1, 2, 3, 4, 5})
	tied.Rows[1].Rank = 1 // duplicate rank

	engine := NewEngine(6, DefaultTrainingOptions(), nil)
	err := engine.Train([]TrainingEvent{short, tied})
	require.ErrorIs(t, err, ErrNoTrainingData)

	// Valid events alongside invalid ones still train
	events := append(testEvents(t), short, tied)
	engine = NewEngine(6, DefaultTrainingOptions(), nil)
	require.NoError(t, engine.Train(events))
}

func TestPredictOutcomesRequiresTrainedModel(t *testing.T) {
	engine := NewEngine(6, DefaultTrainingOptions(), nil)
	_, err := engine.PredictOutcomes(testRows(t))
	require.ErrorIs(t, err, ErrModelNotTrained)
}

func TestPredictOutcomesRequiresExactRowCount(t *testing.T) {
	engine := trainedEngine(t)
	_, err := engine.PredictOutcomes(testRows(t)[:4])

	var sizeErr *InputSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 6, sizeErr.Want)
	assert.Equal(t, 4, sizeErr.Got)
}

func TestPredictOutcomesNormalization(t *testing.T) {
	engine := trainedEngine(t)
	table, err := engine.PredictOutcomes(testRows(t))
	require.NoError(t, err)

	assert.Len(t, table.Probabilities, 120)
	assert.InDelta(t, 1.0, table.Sum(), 1e-6)
	for key, p := range table.Probabilities {
		assert.GreaterOrEqual(t, p, 0.0, "outcome %s", key)
		assert.LessOrEqual(t, p, 1.0, "outcome %s", key)
	}
}

func TestPredictOutcomesDeterminism(t *testing.T) {
	engine := trainedEngine(t)
	rows := testRows(t)

	first, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)
	second, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)

	require.Equal(t, len(first.Probabilities), len(second.Probabilities))
	for key, p := range first.Probabilities {
		assert.Equal(t, p, second.Probabilities[key], "outcome %s", key)
	}
}

func TestPredictOutcomesPermutationEquivariance(t *testing.T) {
	engine := trainedEngine(t)
	rows := testRows(t)

	table, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)

	// Reorder the input rows; identifiers travel with their features, so the
	// keyed probabilities must be unchanged.
	shuffled := []FeatureRow{rows[3], rows[0], rows[5], rows[1], rows[4], rows[2]}
	shuffledTable, err := engine.PredictOutcomes(shuffled)
	require.NoError(t, err)

	require.Equal(t, len(table.Probabilities), len(shuffledTable.Probabilities))
	for key, p := range table.Probabilities {
		assert.InDelta(t, p, shuffledTable.Probabilities[key], 1e-9, "outcome %s", key)
	}
}

func TestPredictOutcomesStrongerEntrantFavored(t *testing.T) {
	engine := trainedEngine(t)
	table, err := engine.PredictOutcomes(testRows(t))
	require.NoError(t, err)

	// Lane 1 wins most training events; the 1-2-3 outcome should outweigh
	// its reverse.
	assert.Greater(t, table.Probabilities["1-2-3"], table.Probabilities["6-5-4"])
}

func TestPredictOutcomesSchemaMismatchRecovered(t *testing.T) {
	engine := trainedEngine(t)

	// Rows missing a feature the model was trained with: filled with 0 and
	// recorded, never an error.
	partial := make([]FeatureRow, 6)
	for i := 0; i < 6; i++ {
		row, err := NewFeatureRow(fmt.Sprintf("%d", i+1),
			[]string{"national_win_rate"}, []float64{float64(6-i) / 6.0})
		require.NoError(t, err)
		partial[i] = row
	}

	table, err := engine.PredictOutcomes(partial)
	require.NoError(t, err)
	assert.NotEmpty(t, table.Substitutions)
	assert.InDelta(t, 1.0, table.Sum(), 1e-6)
}
