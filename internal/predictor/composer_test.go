package predictor

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine builds a fully-trained engine whose classifiers score each row
// as sigmoid(strength): unit weight on the candidate's strength feature,
// zero weight on all conditioning features.
func stubEngine(t *testing.T) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engine := NewEngine(6, DefaultTrainingOptions(), logger)
	engine.first = &placeClassifier{
		stage:        stageFirst,
		featureNames: []string{"strength"},
		weights:      []float64{1},
	}
	engine.second = &placeClassifier{
		stage:        stageSecond,
		featureNames: []string{"strength", "first_strength"},
		weights:      []float64{1, 0},
	}
	engine.third = &placeClassifier{
		stage:        stageThird,
		featureNames: []string{"strength", "first_strength", "second_strength"},
		weights:      []float64{1, 0, 0},
	}
	engine.state = StateFullyTrained
	return engine
}

func strengthRows(t *testing.T, strengths []float64) []FeatureRow {
	t.Helper()
	rows := make([]FeatureRow, len(strengths))
	for i, s := range strengths {
		row, err := NewFeatureRow(fmt.Sprintf("%d", i+1), []string{"strength"}, []float64{s})
		require.NoError(t, err)
		rows[i] = row
	}
	return rows
}

func TestComposeHandComputedOutcome(t *testing.T) {
	engine := stubEngine(t)
	strengths := []float64{0.3, 1.2, -0.4, 0.8, 0.1, -1.0}
	rows := strengthRows(t, strengths)

	table, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)
	require.Len(t, table.Probabilities, 120)

	// With score = sigmoid(strength) independent of conditioning:
	//   P(first=2)          = sig(s2) / sum over all lanes
	//   P(second=5|first=2) = sig(s5) / sum over lanes != 2
	//   P(third=1|2,5)      = sig(s1) / sum over lanes not in {2,5}
	scores := make([]float64, 6)
	total := 0.0
	for i, s := range strengths {
		scores[i] = sigmoid(s)
		total += scores[i]
	}

	pFirst := scores[1] / total
	pSecond := scores[4] / (total - scores[1])
	pThird := scores[0] / (total - scores[1] - scores[4])
	want := pFirst * pSecond * pThird

	assert.InDelta(t, want, table.Probabilities["2-5-1"], 1e-9)
	assert.InDelta(t, 1.0, table.Sum(), 1e-6)
}

func TestComposeDegenerateGroupFallsBackToUniform(t *testing.T) {
	engine := stubEngine(t)
	// A bias this negative underflows sigmoid to exactly zero for every
	// conditioned row, making all second-stage groups degenerate.
	engine.second.bias = -5000

	rows := strengthRows(t, []float64{0.3, 1.2, -0.4, 0.8, 0.1, -1.0})
	table, err := engine.PredictOutcomes(rows)
	require.NoError(t, err)

	assert.NotEmpty(t, table.Degenerate)
	assert.InDelta(t, 1.0, table.Sum(), 1e-6)

	// Within a degenerate group P(second=j|first=i) is uniform: 1/5. The
	// joint P(i,j,k) then depends on j only through the third stage.
	for _, p := range table.Probabilities {
		assert.False(t, p != p, "NaN probability") // p != p catches NaN
		assert.GreaterOrEqual(t, p, 0.0)
	}

	// P(1-2-3) / P(1-4-3): identical first and third factors would differ
	// only via the second-stage conditional, which is uniform here; the
	// third-stage group differs though, so compare a pure second-stage pair.
	sumOverThird := func(first, second string) float64 {
		total := 0.0
		for key, p := range table.Probabilities {
			var f, s, th string
			_, err := fmt.Sscanf(key, "%1s-%1s-%1s", &f, &s, &th)
			require.NoError(t, err)
			if f == first && s == second {
				total += p
			}
		}
		return total
	}
	// Marginal P(first=1, second=j) must be equal for all j when the
	// second-stage conditional is uniform.
	pa := sumOverThird("1", "2")
	pb := sumOverThird("1", "5")
	assert.InDelta(t, pa, pb, 1e-9)
}

func TestNormalizeGroup(t *testing.T) {
	scores := []float64{1, 3}
	degenerate := normalizeGroup(scores)
	assert.False(t, degenerate)
	assert.InDelta(t, 0.25, scores[0], 1e-12)
	assert.InDelta(t, 0.75, scores[1], 1e-12)

	zeros := []float64{0, 0, 0, 0, 0}
	degenerate = normalizeGroup(zeros)
	assert.True(t, degenerate)
	for _, s := range zeros {
		assert.InDelta(t, 0.2, s, 1e-12)
	}
}

func TestConditionalNormalization(t *testing.T) {
	engine := stubEngine(t)
	rows := strengthRows(t, []float64{0.3, 1.2, -0.4, 0.8, 0.1, -1.0})
	a := arenaFor(6)

	x2, _ := buildMatrix(a.pairRows(rows), engine.second.featureNames, stageSecond)
	pSecond := engine.second.score(x2)
	normalizeStage2(a, rows, pSecond)

	// For each designated 1st the conditional over candidates sums to 1
	for g := 0; g < 6; g++ {
		total := 0.0
		for _, p := range pSecond[g*5 : (g+1)*5] {
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9, "group %d", g)
	}

	x3, _ := buildMatrix(a.tripleRows(rows), engine.third.featureNames, stageThird)
	pThird := engine.third.score(x3)
	normalizeStage3(a, rows, pThird)

	for g := 0; g < 30; g++ {
		total := 0.0
		for _, p := range pThird[g*4 : (g+1)*4] {
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9, "pair group %d", g)
	}
}
