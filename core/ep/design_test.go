package ep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDesign_SignFlipsByLabel(t *testing.T) {
	d, err := NewDesign([]int{1, 2}, [][]float64{{1, -2}, {3, 4}})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -2}, d.Row(0), "class 1 keeps its sign")
	assert.Equal(t, []float64{-3, -4}, d.Row(1), "class 2 is negated")
	assert.Equal(t, 2, d.NSamples())
	assert.Equal(t, 2, d.NFeatures())
}

func TestNewDesign_Validation(t *testing.T) {
	_, err := NewDesign([]int{0}, [][]float64{{1}})
	assert.ErrorIs(t, err, ErrBadLabel)

	_, err = NewDesign([]int{1, 2}, [][]float64{{1}})
	assert.Error(t, err, "label/sample count mismatch")

	_, err = NewDesign([]int{1, 2}, [][]float64{{1, 2}, {3}})
	assert.Error(t, err, "ragged feature rows")

	_, err = NewDesign(nil, nil)
	assert.Error(t, err, "empty dataset")
}

func TestDesign_MulAndMulT(t *testing.T) {
	d, err := NewDesign([]int{1, 1}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 11}, d.Mul([]float64{1, 2}))
	assert.Equal(t, []float64{7, 10}, d.MulT([]float64{1, 2}))
}

func TestNewDesign_DoesNotAliasInput(t *testing.T) {
	feat := [][]float64{{1, 2}}
	d, err := NewDesign([]int{1}, feat)
	require.NoError(t, err)

	feat[0][0] = 99
	assert.Equal(t, []float64{1, 2}, d.Row(0))
}

func TestNewInitialTerms(t *testing.T) {
	terms := newInitialTerms(3, 2, 0.01)

	for _, v := range terms.HatK {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 0.01)
	}
	assert.Equal(t, []float64{0.01, 0.01}, terms.DiagK)
	assert.Equal(t, []float64{0.01, 0.01}, terms.AuxK)
	assert.Equal(t, []float64{0, 0, 0}, terms.HatH)
	assert.Equal(t, []float64{0, 0}, terms.H)
}
