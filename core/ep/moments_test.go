package ep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/sparseep/core/linalg"
)

// squareProblem builds a problem where nsamples == nfeatures, so both moment
// routes are valid and must agree.
func squareProblem(t *testing.T) (*Design, *Model) {
	t.Helper()

	design, err := NewDesign(
		[]int{1, 2, 1},
		[][]float64{
			{1.2, -0.3, 0.5},
			{0.4, 0.9, -1.1},
			{-0.7, 0.2, 0.8},
		},
	)
	require.NoError(t, err)

	model := &Model{
		HatK:  []float64{0.8, 1.3, 0.5},
		DiagK: []float64{2.0, 1.5, 0.7},
		H:     []float64{0.3, -0.6, 1.1},
		AuxK:  linalg.NewDiagonal([]float64{1, 1, 1}),
	}
	return design, model
}

func TestMoments_DirectAndWoodburyAgree(t *testing.T) {
	design, model := squareProblem(t)

	direct, logdetDirect, err := momentsDirect(design, model)
	require.NoError(t, err)
	woodbury, logdetWoodbury, err := momentsWoodbury(design, model)
	require.NoError(t, err)

	for i := range direct.M {
		assert.InDelta(t, direct.M[i], woodbury.M[i], 1e-10, "M[%d]", i)
		assert.InDelta(t, direct.DiagC[i], woodbury.DiagC[i], 1e-10, "DiagC[%d]", i)
	}
	for k := range direct.HatB {
		assert.InDelta(t, direct.HatB[k], woodbury.HatB[k], 1e-10, "HatB[%d]", k)
		assert.InDelta(t, direct.Hatn[k], woodbury.Hatn[k], 1e-10, "Hatn[%d]", k)
	}
	assert.InDelta(t, logdetDirect, logdetWoodbury, 1e-9)
}

func TestMoments_DiagonalCaseClosedForm(t *testing.T) {
	// Identity design with per-sample precision 2 and unit feature precision
	// gives a weight precision of 3 on every coordinate.
	design, err := NewDesign(
		[]int{1, 1, 1},
		[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	)
	require.NoError(t, err)

	model := &Model{
		HatK:  []float64{2, 2, 2},
		DiagK: []float64{1, 1, 1},
		H:     []float64{1, 0, 0},
		AuxK:  linalg.NewDiagonal([]float64{2, 2, 2}),
	}

	mom, err := toMoments(design, model)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3, mom.M[0], 1e-12)
	assert.InDelta(t, 0, mom.M[1], 1e-12)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0/3, mom.DiagC[i], 1e-12)
		assert.InDelta(t, 1.0/3, mom.HatB[i], 1e-12)
		assert.InDelta(t, 0.5, mom.AuxC[i], 1e-12)
	}
	assert.InDelta(t, 1.0/3, mom.Hatn[0], 1e-12)
}

func TestToMoments_FailsOnIndefiniteAux(t *testing.T) {
	design, model := squareProblem(t)
	model.AuxK = linalg.NewDiagonal([]float64{1, -1, 1})

	_, err := toMoments(design, model)
	assert.ErrorIs(t, err, linalg.ErrNotPositiveDefinite)
}
