package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FeatureRow is a named, ordered feature vector describing one entrant in one
// event. It is immutable once constructed; name order is significant because
// the classifiers capture it at training time.
type FeatureRow struct {
	entrantID string
	names     []string
	values    map[string]float64
}

// NewFeatureRow constructs a feature row from parallel name/value slices
func NewFeatureRow(entrantID string, names []string, values []float64) (FeatureRow, error) {
	if len(names) != len(values) {
		return FeatureRow{}, fmt.Errorf("feature names and values length mismatch: %d vs %d", len(names), len(values))
	}

	vals := make(map[string]float64, len(names))
	ordered := make([]string, len(names))
	for i, name := range names {
		if _, dup := vals[name]; dup {
			return FeatureRow{}, fmt.Errorf("duplicate feature name %q", name)
		}
		vals[name] = values[i]
		ordered[i] = name
	}

	return FeatureRow{entrantID: entrantID, names: ordered, values: vals}, nil
}

// EntrantID returns the entrant identifier for this row
func (f FeatureRow) EntrantID() string {
	return f.entrantID
}

// Names returns the ordered feature names
func (f FeatureRow) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Value returns the named feature value and whether it is present
func (f FeatureRow) Value(name string) (float64, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Len returns the number of features in the row
func (f FeatureRow) Len() int {
	return len(f.names)
}

// LabeledRow is a feature row carrying a ground-truth finishing rank (1..N)
type LabeledRow struct {
	Row  FeatureRow
	Rank int
}

// TrainingEvent groups the labeled rows of one historical event
type TrainingEvent struct {
	EventKey string
	Rows     []LabeledRow
}

// SchemaSubstitution records one feature that was expected by a trained stage
// but absent from the supplied rows, filled with the neutral default 0.
type SchemaSubstitution struct {
	Stage   string `json:"stage"`
	Feature string `json:"feature"`
}

// buildMatrix aligns rows to the given training-time schema and returns the
// dense batch matrix plus any substitutions made for missing features. Missing
// values are filled with 0 rather than dropping the event.
func buildMatrix(rows []FeatureRow, schema []string, stage string) (*mat.Dense, []SchemaSubstitution) {
	data := make([]float64, len(rows)*len(schema))
	var subs []SchemaSubstitution
	missing := make(map[string]bool)

	for i, row := range rows {
		base := i * len(schema)
		for j, name := range schema {
			if v, ok := row.values[name]; ok {
				data[base+j] = v
			} else if !missing[name] {
				missing[name] = true
				subs = append(subs, SchemaSubstitution{Stage: stage, Feature: name})
			}
		}
	}

	return mat.NewDense(len(rows), len(schema), data), subs
}

// conditionedRow concatenates a candidate's features with the features of the
// entrants already fixed at earlier positions, prefixing the conditioning
// columns so the combined schema stays unambiguous.
func conditionedRow(candidate FeatureRow, fixed ...FeatureRow) FeatureRow {
	size := len(candidate.names)
	for _, f := range fixed {
		size += len(f.names)
	}

	names := make([]string, 0, size)
	values := make(map[string]float64, size)
	names = append(names, candidate.names...)
	for name, v := range candidate.values {
		values[name] = v
	}
	for pos, f := range fixed {
		prefix := conditioningPrefixes[pos]
		for _, name := range f.names {
			key := prefix + name
			names = append(names, key)
			values[key] = f.values[name]
		}
	}

	return FeatureRow{entrantID: candidate.entrantID, names: names, values: values}
}

// conditioningPrefixes qualify the columns contributed by the designated
// 1st- and 2nd-place entrants in a conditioned row.
var conditioningPrefixes = []string{"first_", "second_"}
