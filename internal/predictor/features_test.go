package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureRowValidation(t *testing.T) {
	_, err := NewFeatureRow("1", []string{"a", "b"}, []float64{1})
	require.Error(t, err)

	_, err = NewFeatureRow("1", []string{"a", "a"}, []float64{1, 2})
	require.Error(t, err)

	row, err := NewFeatureRow("1", []string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, row.Len())
	assert.Equal(t, []string{"a", "b"}, row.Names())
}

func TestBuildMatrixAlignsToSchema(t *testing.T) {
	rowA, err := NewFeatureRow("1", []string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)
	rowB, err := NewFeatureRow("2", []string{"b", "a"}, []float64{4, 3})
	require.NoError(t, err)

	// Schema order wins regardless of row construction order
	x, subs := buildMatrix([]FeatureRow{rowA, rowB}, []string{"a", "b"}, "test")
	assert.Empty(t, subs)
	assert.Equal(t, 1.0, x.At(0, 0))
	assert.Equal(t, 2.0, x.At(0, 1))
	assert.Equal(t, 3.0, x.At(1, 0))
	assert.Equal(t, 4.0, x.At(1, 1))
}

func TestBuildMatrixFillsMissingWithZero(t *testing.T) {
	row, err := NewFeatureRow("1", []string{"a"}, []float64{7})
	require.NoError(t, err)

	x, subs := buildMatrix([]FeatureRow{row, row}, []string{"a", "gone"}, "second_place")
	require.Len(t, subs, 1)
	assert.Equal(t, "second_place", subs[0].Stage)
	assert.Equal(t, "gone", subs[0].Feature)

	assert.Equal(t, 7.0, x.At(0, 0))
	assert.Equal(t, 0.0, x.At(0, 1))
	assert.Equal(t, 0.0, x.At(1, 1))
}

func TestBuildMatrixIgnoresExtraFeatures(t *testing.T) {
	row, err := NewFeatureRow("1", []string{"a", "extra"}, []float64{1, 99})
	require.NoError(t, err)

	x, subs := buildMatrix([]FeatureRow{row}, []string{"a"}, "test")
	assert.Empty(t, subs)
	_, cols := x.Dims()
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1.0, x.At(0, 0))
}
