package predictor

import "sync"

// arena holds the combinatorial index lists for a field size N. The indices
// depend only on N, never on feature values, so one arena is computed per N
// and shared by every prediction.
type arena struct {
	n       int
	pairs   [][2]int // (designated 1st, candidate 2nd), N*(N-1) rows
	triples [][3]int // (designated 1st, designated 2nd, candidate 3rd), N*(N-1)*(N-2) rows
}

var (
	arenaMu sync.Mutex
	arenas  = make(map[int]*arena)
)

// arenaFor returns the shared index arena for field size n
func arenaFor(n int) *arena {
	arenaMu.Lock()
	defer arenaMu.Unlock()

	if a, ok := arenas[n]; ok {
		return a
	}

	a := &arena{
		n:       n,
		pairs:   make([][2]int, 0, n*(n-1)),
		triples: make([][3]int, 0, n*(n-1)*(n-2)),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			a.pairs = append(a.pairs, [2]int{i, j})
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				a.triples = append(a.triples, [3]int{i, j, k})
			}
		}
	}

	arenas[n] = a
	return a
}

// pairRows builds the flat second-stage batch: one conditioned row per
// ordered (designated 1st, candidate) pair, in arena order.
func (a *arena) pairRows(rows []FeatureRow) []FeatureRow {
	out := make([]FeatureRow, len(a.pairs))
	for idx, p := range a.pairs {
		out[idx] = conditionedRow(rows[p[1]], rows[p[0]])
	}
	return out
}

// tripleRows builds the flat third-stage batch: one conditioned row per
// ordered (1st, 2nd, candidate) triple, in arena order.
func (a *arena) tripleRows(rows []FeatureRow) []FeatureRow {
	out := make([]FeatureRow, len(a.triples))
	for idx, t := range a.triples {
		out[idx] = conditionedRow(rows[t[2]], rows[t[0]], rows[t[1]])
	}
	return out
}
