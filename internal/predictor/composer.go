package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// OutcomeTable is the full trifecta distribution for one event, keyed by
// "first-second-third" entrant identifiers. Probabilities sum to 1 by
// construction of the per-stage conditional distributions.
type OutcomeTable struct {
	Probabilities map[string]float64   `json:"probabilities"`
	Degenerate    []string             `json:"degenerate_groups,omitempty"`
	Substitutions []SchemaSubstitution `json:"schema_substitutions,omitempty"`
}

// Sum returns the total probability mass of the table
func (t *OutcomeTable) Sum() float64 {
	total := 0.0
	for _, p := range t.Probabilities {
		total += p
	}
	return total
}

// outcomeKey formats an ordered triple using the entrant identifiers
func outcomeKey(first, second, third FeatureRow) string {
	return fmt.Sprintf("%s-%s-%s", first.entrantID, second.entrantID, third.entrantID)
}

// normalizeGroup rescales scores in place so they sum to 1. An all-zero
// group is an expected edge case for extreme inputs: it becomes a uniform
// distribution and is reported, never a NaN.
func normalizeGroup(scores []float64) (degenerate bool) {
	total := floats.Sum(scores)
	if total <= 0 {
		uniform := 1.0 / float64(len(scores))
		for i := range scores {
			scores[i] = uniform
		}
		return true
	}
	floats.Scale(1.0/total, scores)
	return false
}

// compose combines the three normalized stage distributions via the chain
// rule. pFirst is indexed by entrant, pSecond and pThird follow arena pair
// and triple order respectively; both must already be group-normalized.
// No final re-normalization pass is applied: the sum is 1 because each
// factor is a proper conditional distribution over its remaining candidates.
func compose(a *arena, rows []FeatureRow, pFirst, pSecond, pThird []float64) map[string]float64 {
	// pSecond in arena pair order maps to P(second=j | first=i)
	pairProb := make(map[[2]int]float64, len(a.pairs))
	for idx, p := range a.pairs {
		pairProb[p] = pSecond[idx]
	}

	out := make(map[string]float64, len(a.triples))
	for idx, t := range a.triples {
		p := pFirst[t[0]] * pairProb[[2]int{t[0], t[1]}] * pThird[idx]
		out[outcomeKey(rows[t[0]], rows[t[1]], rows[t[2]])] = p
	}
	return out
}

// normalizeStage2 normalizes the raw pair scores group-by-group: all
// candidates sharing a designated 1st form one conditional distribution.
// Returns the identifiers of any degenerate groups.
func normalizeStage2(a *arena, rows []FeatureRow, scores []float64) []string {
	var degenerate []string
	group := a.n - 1
	for g := 0; g < a.n; g++ {
		slice := scores[g*group : (g+1)*group]
		if normalizeGroup(slice) {
			degenerate = append(degenerate, fmt.Sprintf("second|first=%s", rows[a.pairs[g*group][0]].entrantID))
		}
	}
	return degenerate
}

// normalizeStage3 normalizes the raw triple scores per (1st, 2nd) pair group
func normalizeStage3(a *arena, rows []FeatureRow, scores []float64) []string {
	var degenerate []string
	group := a.n - 2
	for g := 0; g < len(a.pairs); g++ {
		slice := scores[g*group : (g+1)*group]
		if normalizeGroup(slice) {
			t := a.triples[g*group]
			degenerate = append(degenerate, fmt.Sprintf("third|first=%s,second=%s", rows[t[0]].entrantID, rows[t[1]].entrantID))
		}
	}
	return degenerate
}
