package predictor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the training pipeline state. Stages are strictly
// sequential: the second- and third-stage training sets are conditioned on
// ground-truth placements that must be assembled in order, and each stage
// captures the feature schema the next depends on at inference time.
type State int

// Pipeline states
const (
	StateUntrained State = iota
	StateFirstTrained
	StateSecondTrained
	StateFullyTrained
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateFirstTrained:
		return "first_trained"
	case StateSecondTrained:
		return "second_trained"
	case StateFullyTrained:
		return "fully_trained"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Stage names used for artifacts, metrics and logs
const (
	stageFirst  = "first_place"
	stageSecond = "second_place"
	stageThird  = "third_place"
)

// Engine trains the three position classifiers and composes their outputs
// into trifecta probability tables. Safe for concurrent PredictOutcomes
// calls once training has completed; training itself is sequential.
type Engine struct {
	n      int
	state  State
	opts   TrainingOptions
	logger *logrus.Logger

	first  *placeClassifier
	second *placeClassifier
	third  *placeClassifier
}

// NewEngine creates an untrained engine for events of n entrants
func NewEngine(n int, opts TrainingOptions, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{n: n, state: StateUntrained, opts: opts, logger: logger}
}

// N returns the expected field size
func (e *Engine) N() int {
	return e.n
}

// State returns the current pipeline state
func (e *Engine) State() State {
	return e.state
}

// TrainedAt returns when the first-place stage finished fitting, or the
// zero time before any training has happened
func (e *Engine) TrainedAt() time.Time {
	if e.first == nil {
		return time.Time{}
	}
	return e.first.trainedAt
}

// Train fits the three stage classifiers in sequence from historical events.
// Events whose rows are not exactly N, or whose ranks are not a permutation
// of 1..N, are rejected individually with a warning; training fails only if
// no valid event remains.
func (e *Engine) Train(events []TrainingEvent) error {
	valid := e.validEvents(events)
	if len(valid) == 0 {
		return ErrNoTrainingData
	}

	e.state = StateUntrained
	if err := e.trainFirstStage(valid); err != nil {
		return err
	}
	if err := e.trainSecondStage(valid); err != nil {
		return err
	}
	if err := e.trainThirdStage(valid); err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"events": len(valid),
		"state":  e.state.String(),
	}).Info("Training pipeline completed")
	return nil
}

func (e *Engine) validEvents(events []TrainingEvent) []TrainingEvent {
	valid := make([]TrainingEvent, 0, len(events))
	for _, ev := range events {
		if len(ev.Rows) != e.n {
			TrainingEventsRejected.Inc()
			e.logger.WithFields(logrus.Fields{
				"event": ev.EventKey,
				"rows":  len(ev.Rows),
			}).Warn("Rejecting training event: wrong row count")
			continue
		}
		if !validRanks(ev.Rows, e.n) {
			TrainingEventsRejected.Inc()
			e.logger.WithField("event", ev.EventKey).Warn("Rejecting training event: ranks are not a permutation of 1..N")
			continue
		}
		valid = append(valid, ev)
	}
	return valid
}

func validRanks(rows []LabeledRow, n int) bool {
	seen := make([]bool, n)
	for _, r := range rows {
		if r.Rank < 1 || r.Rank > n || seen[r.Rank-1] {
			return false
		}
		seen[r.Rank-1] = true
	}
	return true
}

// trainFirstStage fits the win classifier on every entrant of every event
func (e *Engine) trainFirstStage(events []TrainingEvent) error {
	if e.state != StateUntrained {
		return &StageStateError{Stage: stageFirst, State: e.state}
	}

	var rows []FeatureRow
	var labels []float64
	for _, ev := range events {
		for _, lr := range ev.Rows {
			rows = append(rows, lr.Row)
			labels = append(labels, boolLabel(lr.Rank == 1))
		}
	}

	clf, err := e.fitStage(stageFirst, rows, labels)
	if err != nil {
		return err
	}
	e.first = clf
	e.state = StateFirstTrained
	return nil
}

// trainSecondStage fits the runner-up classifier. Each training row is a
// candidate's features conditioned on the GROUND-TRUTH winner's features,
// not the first stage's prediction. Faithful to the source system; the
// resulting train/serve conditioning mismatch is a recorded open question.
func (e *Engine) trainSecondStage(events []TrainingEvent) error {
	if e.state != StateFirstTrained {
		return &StageStateError{Stage: stageSecond, State: e.state}
	}

	var rows []FeatureRow
	var labels []float64
	for _, ev := range events {
		winner := rowAtRank(ev.Rows, 1)
		for _, lr := range ev.Rows {
			if lr.Rank == 1 {
				continue
			}
			rows = append(rows, conditionedRow(lr.Row, winner))
			labels = append(labels, boolLabel(lr.Rank == 2))
		}
	}

	clf, err := e.fitStage(stageSecond, rows, labels)
	if err != nil {
		return err
	}
	e.second = clf
	e.state = StateSecondTrained
	return nil
}

// trainThirdStage fits the third-place classifier, conditioned on the
// ground-truth 1st- and 2nd-place entrants
func (e *Engine) trainThirdStage(events []TrainingEvent) error {
	if e.state != StateSecondTrained {
		return &StageStateError{Stage: stageThird, State: e.state}
	}

	var rows []FeatureRow
	var labels []float64
	for _, ev := range events {
		winner := rowAtRank(ev.Rows, 1)
		runnerUp := rowAtRank(ev.Rows, 2)
		for _, lr := range ev.Rows {
			if lr.Rank <= 2 {
				continue
			}
			rows = append(rows, conditionedRow(lr.Row, winner, runnerUp))
			labels = append(labels, boolLabel(lr.Rank == 3))
		}
	}

	clf, err := e.fitStage(stageThird, rows, labels)
	if err != nil {
		return err
	}
	e.third = clf
	e.state = StateFullyTrained
	return nil
}

func (e *Engine) fitStage(stage string, rows []FeatureRow, labels []float64) (*placeClassifier, error) {
	if len(rows) == 0 {
		return nil, ErrNoTrainingData
	}

	start := time.Now()
	schema := rows[0].Names()
	x, subs := buildMatrix(rows, schema, stage)
	if len(subs) > 0 {
		// Training rows built from the same events should share a schema;
		// a substitution here means the upstream feature pipeline is unstable.
		e.logger.WithFields(logrus.Fields{
			"stage":   stage,
			"missing": len(subs),
		}).Warn("Feature schema drift within training set")
	}

	clf, err := fitClassifier(stage, schema, x, labels, e.opts)
	if err != nil {
		return nil, fmt.Errorf("fit %s classifier: %w", stage, err)
	}

	TrainingDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	TrainingIterations.WithLabelValues(stage).Set(float64(clf.iterations))
	e.logger.WithFields(logrus.Fields{
		"stage":      stage,
		"rows":       len(rows),
		"features":   len(schema),
		"iterations": clf.iterations,
		"converged":  clf.converged,
	}).Info("Stage classifier trained")
	return clf, nil
}

func rowAtRank(rows []LabeledRow, rank int) FeatureRow {
	for _, lr := range rows {
		if lr.Rank == rank {
			return lr.Row
		}
	}
	return FeatureRow{}
}

func boolLabel(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// PredictOutcomes computes the full trifecta distribution for one event.
// Exactly three batched classifier calls are made regardless of the outcome
// count. The call is deterministic and side-effect free.
func (e *Engine) PredictOutcomes(rows []FeatureRow) (*OutcomeTable, error) {
	if e.state != StateFullyTrained {
		return nil, fmt.Errorf("%w: state is %s", ErrModelNotTrained, e.state)
	}
	if len(rows) != e.n {
		return nil, &InputSizeError{Want: e.n, Got: len(rows)}
	}

	a := arenaFor(e.n)
	var subs []SchemaSubstitution
	var degenerate []string

	// Stage 1: one batched call over the N entrants, normalized across the event
	x1, s1 := buildMatrix(rows, e.first.featureNames, stageFirst)
	subs = append(subs, s1...)
	pFirst := e.first.score(x1)
	if normalizeGroup(pFirst) {
		degenerate = append(degenerate, "first")
	}

	// Stage 2: one batched call over all N*(N-1) ordered pairs
	x2, s2 := buildMatrix(a.pairRows(rows), e.second.featureNames, stageSecond)
	subs = append(subs, s2...)
	pSecond := e.second.score(x2)
	degenerate = append(degenerate, normalizeStage2(a, rows, pSecond)...)

	// Stage 3: one batched call over all N*(N-1)*(N-2) ordered triples
	x3, s3 := buildMatrix(a.tripleRows(rows), e.third.featureNames, stageThird)
	subs = append(subs, s3...)
	pThird := e.third.score(x3)
	degenerate = append(degenerate, normalizeStage3(a, rows, pThird)...)

	for _, sub := range subs {
		SchemaSubstitutionsTotal.WithLabelValues(sub.Stage).Inc()
		e.logger.WithFields(logrus.Fields{
			"stage":   sub.Stage,
			"feature": sub.Feature,
		}).Warn("Missing feature filled with neutral default")
	}
	if len(degenerate) > 0 {
		DegenerateGroupsTotal.Add(float64(len(degenerate)))
		e.logger.WithField("groups", degenerate).Warn("Degenerate score groups replaced with uniform distribution")
	}
	PredictionsTotal.Inc()

	return &OutcomeTable{
		Probabilities: compose(a, rows, pFirst, pSecond, pThird),
		Degenerate:    degenerate,
		Substitutions: subs,
	}, nil
}
