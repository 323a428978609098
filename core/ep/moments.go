package ep

import (
	"math"

	"github.com/viterin/vek"

	"github.com/adalundhe/sparseep/core/linalg"
)

// Moments is the moment-form view of the canonical model: posterior mean and
// marginal variances for the weight, projected-sample, and auxiliary groups,
// plus the log-determinant term that feeds the evidence estimate. Derived
// state only; recomputed whenever the canonical fields change.
type Moments struct {
	M    []float64 // feature-space posterior mean
	Hatn []float64 // A M, per-sample projected mean
	HatB []float64 // per-sample projected variance a_k' C a_k

	DiagC []float64 // per-feature weight variance
	AuxC  []float64 // per-feature auxiliary-variable variance

	LogDet float64
}

// toMoments converts the canonical model to moment form. The weight block
// picks the cheaper of two algebraically equivalent routes: a direct
// nfeatures x nfeatures inversion when samples outnumber features, or a
// Woodbury-identity route through an nsamples x nsamples system otherwise.
// Fails only when a required Cholesky factorization is not positive
// definite.
func toMoments(d *Design, m *Model) (*Moments, error) {
	var (
		mom     *Moments
		logdetW float64
		err     error
	)
	if d.NSamples() > d.NFeatures() {
		mom, logdetW, err = momentsDirect(d, m)
	} else {
		mom, logdetW, err = momentsWoodbury(d, m)
	}
	if err != nil {
		return nil, err
	}

	// Auxiliary block: invert AuxK and keep only the diagonal. This is the
	// dominant cost when features far outnumber samples and the prior has
	// dense off-diagonal structure.
	auxFactor, err := linalg.Cholesky(m.AuxK)
	if err != nil {
		return nil, err
	}
	auxC, err := auxFactor.InverseDiagonal()
	if err != nil {
		return nil, err
	}

	mom.AuxC = auxC
	mom.LogDet = logdetW - auxFactor.LogDet()
	return mom, nil
}

// momentsDirect forms the full weight precision A' diag(HatK) A + diag(DiagK)
// and inverts it via Cholesky.
func momentsDirect(d *Design, m *Model) (*Moments, float64, error) {
	nfeatures := d.NFeatures()

	precision := linalg.NewDiagonal(m.DiagK)
	for k := 0; k < d.NSamples(); k++ {
		row := d.Row(k)
		hatK := m.HatK[k]
		for i := 0; i < nfeatures; i++ {
			ai := hatK * row[i]
			if ai == 0 {
				continue
			}
			for j := i; j < nfeatures; j++ {
				precision.Set(i, j, precision.At(i, j)+ai*row[j])
			}
		}
	}

	factor, err := linalg.Cholesky(precision)
	if err != nil {
		return nil, 0, err
	}

	mean, err := factor.SolveVec(m.H)
	if err != nil {
		return nil, 0, err
	}
	cov, err := factor.Inverse()
	if err != nil {
		return nil, 0, err
	}

	hatB := make([]float64, d.NSamples())
	scratch := make([]float64, nfeatures)
	for k := 0; k < d.NSamples(); k++ {
		row := d.Row(k)
		for i := 0; i < nfeatures; i++ {
			acc := 0.0
			for j := 0; j < nfeatures; j++ {
				acc += cov.At(i, j) * row[j]
			}
			scratch[i] = acc
		}
		hatB[k] = vek.Dot(row, scratch)
	}

	mom := &Moments{
		M:     mean,
		Hatn:  d.Mul(mean),
		HatB:  hatB,
		DiagC: cov.Diagonal(),
	}
	logdetW := -factor.LogDet() + vek.Dot(m.H, mean)
	return mom, logdetW, nil
}

// momentsWoodbury avoids the nfeatures x nfeatures inversion: with
// scaledA = A diag(1/DiagK) and W = A scaledA', the weight covariance is
// diag(1/DiagK) - scaledA' (diag(1/HatK) + W)^-1 scaledA.
//
// The log-determinant combines the small-matrix determinant with the
// diagonal precisions and the documented quadratic correction
// M' diag(DiagK) M + Hatn' diag(HatK) Hatn.
func momentsWoodbury(d *Design, m *Model) (*Moments, float64, error) {
	nsamples := d.NSamples()
	nfeatures := d.NFeatures()

	scaled := make([][]float64, nsamples)
	for k := 0; k < nsamples; k++ {
		row := d.Row(k)
		s := make([]float64, nfeatures)
		for i := 0; i < nfeatures; i++ {
			s[i] = row[i] / m.DiagK[i]
		}
		scaled[k] = s
	}

	// W = A scaledA', computed on the upper triangle and mirrored, which
	// keeps it exactly symmetric.
	w := linalg.NewSymMatrix(nsamples)
	for k := 0; k < nsamples; k++ {
		for l := k; l < nsamples; l++ {
			w.Set(k, l, vek.Dot(d.Row(k), scaled[l]))
		}
	}

	small := w.Clone()
	invHatK := make([]float64, nsamples)
	for k, v := range m.HatK {
		invHatK[k] = 1 / v
	}
	if err := small.AddToDiagonal(invHatK); err != nil {
		return nil, 0, err
	}

	factor, err := linalg.Cholesky(small)
	if err != nil {
		return nil, 0, err
	}

	// Mean: g - scaledA' T (A g) with g = H / DiagK.
	g := make([]float64, nfeatures)
	for i := 0; i < nfeatures; i++ {
		g[i] = m.H[i] / m.DiagK[i]
	}
	sol, err := factor.SolveVec(d.Mul(g))
	if err != nil {
		return nil, 0, err
	}
	mean := make([]float64, nfeatures)
	copy(mean, g)
	for k := 0; k < nsamples; k++ {
		sk := sol[k]
		if sk == 0 {
			continue
		}
		for i, v := range scaled[k] {
			mean[i] -= sk * v
		}
	}

	inv, err := factor.Inverse()
	if err != nil {
		return nil, 0, err
	}

	// DiagC_i = 1/DiagK_i - v_i' T v_i with v_i the i-th column of scaledA.
	diagC := make([]float64, nfeatures)
	for i := 0; i < nfeatures; i++ {
		acc := 0.0
		for k := 0; k < nsamples; k++ {
			tk := 0.0
			for l := 0; l < nsamples; l++ {
				tk += inv.At(k, l) * scaled[l][i]
			}
			acc += scaled[k][i] * tk
		}
		diagC[i] = 1/m.DiagK[i] - acc
	}

	// HatB_k = W_kk - w_k' T w_k with w_k the k-th row of W.
	hatB := make([]float64, nsamples)
	wrow := make([]float64, nsamples)
	for k := 0; k < nsamples; k++ {
		for l := 0; l < nsamples; l++ {
			wrow[l] = w.At(k, l)
		}
		acc := 0.0
		for a := 0; a < nsamples; a++ {
			ta := 0.0
			for b := 0; b < nsamples; b++ {
				ta += inv.At(a, b) * wrow[b]
			}
			acc += wrow[a] * ta
		}
		hatB[k] = w.At(k, k) - acc
	}

	hatn := d.Mul(mean)

	logPrecDet := factor.LogDet()
	for _, v := range m.HatK {
		logPrecDet += math.Log(v)
	}
	for _, v := range m.DiagK {
		logPrecDet += math.Log(v)
	}
	quadratic := 0.0
	for i, v := range mean {
		quadratic += v * v * m.DiagK[i]
	}
	for k, v := range hatn {
		quadratic += v * v * m.HatK[k]
	}

	mom := &Moments{
		M:     mean,
		Hatn:  hatn,
		HatB:  hatB,
		DiagC: diagC,
	}
	return mom, -logPrecDet + quadratic, nil
}
