package ep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/sparseep/core/quadrature"
)

func TestComputeTermProxy_RoundTrip(t *testing.T) {
	// Applying the proxy via the rank-one update must reproduce the target
	// moments exactly when fraction is 1.
	oldC, oldM := 2.0, 0.5
	newC, newM := 1.2, -0.3

	k, h, _ := computeTermProxy(oldC, oldM, newC, newM, 1)
	gotC, gotM := rankOne(oldC, oldM, k, h)

	assert.InDelta(t, newC, gotC, 1e-12)
	assert.InDelta(t, newM, gotM, 1e-12)
}

func TestComputeTermProxy_FractionScalesParameters(t *testing.T) {
	oldC, oldM := 1.5, 0.2
	newC, newM := 0.9, 0.6

	kFull, hFull, logzFull := computeTermProxy(oldC, oldM, newC, newM, 1)
	kHalf, hHalf, logzHalf := computeTermProxy(oldC, oldM, newC, newM, 0.5)

	assert.InDelta(t, 2*kFull, kHalf, 1e-12)
	assert.InDelta(t, 2*hFull, hHalf, 1e-12)
	// The log-normalizer does not carry the fraction.
	assert.InDelta(t, logzFull, logzHalf, 1e-12)
}

func TestLogisticLog_Stability(t *testing.T) {
	assert.InDelta(t, -1000, logisticLog(-1000), 1e-9, "deep negative tail is linear")
	assert.Equal(t, 0.0, logisticLog(1000), "deep positive tail saturates at 0")
	assert.InDelta(t, -math.Log(2), logisticLog(0), 1e-12)

	for _, x := range []float64{-500, -34, -33.5, -1, 0, 1, 33.5, 500} {
		v := logisticLog(x)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "logisticLog(%v) = %v", x, v)
		assert.LessOrEqual(t, v, 0.0)
	}
}

func TestAdfUpdate_LogisticSitesShrinkVariance(t *testing.T) {
	// The logistic likelihood is log-concave, so moment matching against it
	// must yield positive site precisions on every sample.
	design, err := NewDesign([]int{1, 2}, [][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)

	cav := &Cavity{
		HatB:  []float64{4, 9},
		Hatn:  []float64{0.5, -1},
		DiagC: []float64{3, 3},
		M:     []float64{0, 0.2},
		AuxC:  []float64{2, 2},
	}

	hermite, err := quadrature.Hermite(50)
	require.NoError(t, err)
	laguerre, err := quadrature.Laguerre(50)
	require.NoError(t, err)

	res := adfUpdate(design, cav, hermite, laguerre, 0.99, 1)

	for k, siteK := range res.terms.HatK {
		assert.Greater(t, siteK, 0.0, "sample %d", k)
		assert.False(t, math.IsNaN(res.logz[k]))
	}
	for i, siteK := range res.terms.DiagK {
		assert.Greater(t, siteK, 0.0, "feature %d", i)
		assert.False(t, math.IsNaN(res.crosslogz[i]))
	}
}

func TestAdfUpdate_SymmetricCavityKeepsZeroMean(t *testing.T) {
	// With a zero cavity mean the tilted scale-mixture distribution is
	// symmetric, so the fitted cross-term canonical mean must vanish.
	design, err := NewDesign([]int{1}, [][]float64{{1}})
	require.NoError(t, err)

	cav := &Cavity{
		HatB:  []float64{1},
		Hatn:  []float64{0},
		DiagC: []float64{2},
		M:     []float64{0},
		AuxC:  []float64{1.5},
	}

	hermite, err := quadrature.Hermite(50)
	require.NoError(t, err)
	laguerre, err := quadrature.Laguerre(50)
	require.NoError(t, err)

	res := adfUpdate(design, cav, hermite, laguerre, 0.99, 1)

	assert.InDelta(t, 0, res.terms.H[0], 1e-12)
	assert.Greater(t, res.terms.AuxK[0], 0.0,
		"scale mixing concentrates the auxiliary marginal")
}
