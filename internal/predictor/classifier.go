package predictor

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TrainingOptions controls the gradient-ascent fit of each stage classifier
type TrainingOptions struct {
	LearningRate  float64
	MaxIterations int
	Tolerance     float64
	L2Penalty     float64
}

// DefaultTrainingOptions returns recommended defaults
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{
		LearningRate:  0.1,
		MaxIterations: 2000,
		Tolerance:     1e-7,
		L2Penalty:     1e-4,
	}
}

// placeClassifier is a fitted binary logistic-regression classifier for one
// position stage. Immutable after training; it owns the exact feature-name
// list captured when it was fitted.
type placeClassifier struct {
	stage        string
	featureNames []string
	weights      []float64
	bias         float64
	iterations   int
	converged    bool
	trainedAt    time.Time
}

// fitClassifier trains a logistic regression on the given batch by batch
// gradient ascent on the L2-penalized log-likelihood, stopping when the
// log-likelihood change falls below the tolerance.
func fitClassifier(stage string, schema []string, x *mat.Dense, y []float64, opts TrainingOptions) (*placeClassifier, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%s stage: empty training matrix", stage)
	}
	if rows != len(y) {
		return nil, fmt.Errorf("%s stage: %d rows but %d labels", stage, rows, len(y))
	}

	c := &placeClassifier{
		stage:        stage,
		featureNames: schema,
		weights:      make([]float64, cols),
	}

	scores := make([]float64, rows)
	grad := make([]float64, cols)
	prevLL := math.Inf(-1)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		c.scoreInto(x, scores)

		// Gradient of the log-likelihood: X^T (y - p) / n, minus the L2 term
		var biasGrad float64
		for j := range grad {
			grad[j] = 0
		}
		for i := 0; i < rows; i++ {
			diff := y[i] - scores[i]
			biasGrad += diff
			for j := 0; j < cols; j++ {
				grad[j] += diff * x.At(i, j)
			}
		}
		inv := 1.0 / float64(rows)
		for j := 0; j < cols; j++ {
			c.weights[j] += opts.LearningRate * (grad[j]*inv - opts.L2Penalty*c.weights[j])
		}
		c.bias += opts.LearningRate * biasGrad * inv

		ll := logLikelihood(scores, y)
		c.iterations = iter + 1
		if iter > 0 && math.Abs(ll-prevLL) < opts.Tolerance {
			c.converged = true
			break
		}
		prevLL = ll
	}

	c.trainedAt = time.Now().UTC()
	return c, nil
}

// score runs the batched forward pass: sigmoid(Xw + b) for every row
func (c *placeClassifier) score(x *mat.Dense) []float64 {
	rows, _ := x.Dims()
	out := make([]float64, rows)
	c.scoreInto(x, out)
	return out
}

func (c *placeClassifier) scoreInto(x *mat.Dense, out []float64) {
	rows, _ := x.Dims()
	w := mat.NewVecDense(len(c.weights), c.weights)
	z := mat.NewVecDense(rows, out)
	z.MulVec(x, w)
	for i := 0; i < rows; i++ {
		out[i] = sigmoid(out[i] + c.bias)
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func logLikelihood(scores, y []float64) float64 {
	const eps = 1e-12
	ll := 0.0
	for i, p := range scores {
		if y[i] > 0.5 {
			ll += math.Log(p + eps)
		} else {
			ll += math.Log(1 - p + eps)
		}
	}
	return ll
}
