package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaSizes(t *testing.T) {
	a := arenaFor(6)
	assert.Equal(t, 30, len(a.pairs))
	assert.Equal(t, 120, len(a.triples))

	for _, p := range a.pairs {
		assert.NotEqual(t, p[0], p[1])
	}
	for _, tr := range a.triples {
		assert.NotEqual(t, tr[0], tr[1])
		assert.NotEqual(t, tr[0], tr[2])
		assert.NotEqual(t, tr[1], tr[2])
	}
}

func TestArenaReused(t *testing.T) {
	assert.Same(t, arenaFor(6), arenaFor(6))
	assert.NotSame(t, arenaFor(6), arenaFor(4))
}

func TestArenaGroupLayout(t *testing.T) {
	a := arenaFor(4)

	// Pairs sharing a designated 1st are contiguous
	for g := 0; g < 4; g++ {
		for i := 0; i < 3; i++ {
			assert.Equal(t, g, a.pairs[g*3+i][0])
		}
	}

	// Triple group g corresponds to pair g
	for g, p := range a.pairs {
		for i := 0; i < 2; i++ {
			tr := a.triples[g*2+i]
			assert.Equal(t, p[0], tr[0])
			assert.Equal(t, p[1], tr[1])
		}
	}
}

func TestConditionedRowNamesAndValues(t *testing.T) {
	candidate, err := NewFeatureRow("3", []string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)
	winner, err := NewFeatureRow("1", []string{"a", "b"}, []float64{3, 4})
	require.NoError(t, err)
	runnerUp, err := NewFeatureRow("2", []string{"a", "b"}, []float64{5, 6})
	require.NoError(t, err)

	row := conditionedRow(candidate, winner, runnerUp)
	assert.Equal(t, "3", row.EntrantID())
	assert.Equal(t, []string{"a", "b", "first_a", "first_b", "second_a", "second_b"}, row.Names())

	v, ok := row.Value("first_b")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
	v, ok = row.Value("second_a")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
	v, ok = row.Value("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestPairAndTripleRowOrder(t *testing.T) {
	rows := strengthRows(t, []float64{1, 2, 3, 4})
	a := arenaFor(4)

	pairRows := a.pairRows(rows)
	require.Len(t, pairRows, 12)
	// First pair is (designated 0, candidate 1): row carries candidate's ID
	assert.Equal(t, "2", pairRows[0].EntrantID())
	v, ok := pairRows[0].Value("first_strength")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	tripleRows := a.tripleRows(rows)
	require.Len(t, tripleRows, 24)
	// First triple is (0, 1, candidate 2)
	assert.Equal(t, "3", tripleRows[0].EntrantID())
	v, ok = tripleRows[0].Value("second_strength")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}
