package ep

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/sparseep/core/quadrature"
)

const log2Pi = 1.8378770664093453 // log(2 pi)

// logisticLog is log sigmoid(x) = -log(1 + exp(-x)), safe at both tails:
// large negative x would overflow exp(-x), so the linear asymptote is used
// instead; large positive x returns a clean 0.
func logisticLog(x float64) float64 {
	if x < -33 {
		return x
	}
	if x > 33 {
		return 0
	}
	return -math.Log1p(math.Exp(-x))
}

// computeTermProxy derives the canonical site parameters that move a
// marginal from (oldC, oldm) to (newC, newm) when applied with the given
// fraction, along with the Gaussian log-normalizer of the change.
func computeTermProxy(oldC, oldM, newC, newM, fraction float64) (k, h, logz float64) {
	k = (1/newC - 1/oldC) / fraction
	h = (newM/newC - oldM/oldC) / fraction
	logz = -math.Log(newC/oldC)/2 + oldM*oldM/(2*oldC) - newM*newM/(2*newC)
	return k, h, logz
}

// adfResult carries one full-update proposal: freshly fitted sites plus the
// per-site log-partition contributions that enter the evidence estimate.
type adfResult struct {
	terms     *Terms
	logz      []float64 // per sample
	crosslogz []float64 // per feature
}

// adfUpdate refits every site against its cavity by tilted-distribution
// moment matching: Gauss-Hermite quadrature for the logistic likelihood
// sites and Gauss-Laguerre for the exponential scale mixture. Rows are
// independent, so both loops run on the worker pool; every row writes only
// its own slots and reduces its own quadrature sums sequentially, keeping
// the result deterministic.
func adfUpdate(d *Design, cav *Cavity, hermite, laguerre *quadrature.Rule, fraction, temperature float64) *adfResult {
	nsamples := d.NSamples()
	nfeatures := d.NFeatures()

	res := &adfResult{
		terms:     newEmptyTerms(nsamples, nfeatures),
		logz:      make([]float64, nsamples),
		crosslogz: make([]float64, nfeatures),
	}

	// Hermite weights enter as log(w_j) - log(sqrt(pi)) so that the row
	// partition is the cavity-normalized integral of the tilted factor.
	logHermW := make([]float64, len(hermite.Weights))
	for j, w := range hermite.Weights {
		logHermW[j] = math.Log(w) - 0.5*math.Log(math.Pi)
	}
	logLagW := make([]float64, len(laguerre.Weights))
	for j, w := range laguerre.Weights {
		logLagW[j] = math.Log(w)
	}

	power := fraction / temperature

	parallelFor(nsamples, func(lo, hi int) {
		logw := make([]float64, len(hermite.Nodes))
		xs := make([]float64, len(hermite.Nodes))
		for k := lo; k < hi; k++ {
			c := cav.HatB[k]
			m := cav.Hatn[k]
			spread := math.Sqrt(2 * c)

			for j, t := range hermite.Nodes {
				x := m + spread*t
				xs[j] = x
				logw[j] = logHermW[j] + power*logisticLog(x)
			}

			rowMax := floats.Max(logw)
			var z, ex, ex2 float64
			for j, lw := range logw {
				r := math.Exp(lw - rowMax)
				z += r
				ex += r * xs[j]
				ex2 += r * xs[j] * xs[j]
			}
			ex /= z
			ex2 /= z

			newC := ex2 - ex*ex
			siteK, siteH, proxyLogz := computeTermProxy(c, m, newC, ex, fraction)
			res.terms.HatK[k] = siteK
			res.terms.HatH[k] = siteH
			res.logz[k] = rowMax + math.Log(z) + proxyLogz
		}
	})

	parallelFor(nfeatures, func(lo, hi int) {
		logw := make([]float64, len(laguerre.Nodes))
		us := make([]float64, len(laguerre.Nodes))
		for i := lo; i < hi; i++ {
			c := cav.DiagC[i]
			m := cav.M[i]
			auxC := cav.AuxC[i]

			// The auxiliary cavity is exponential; substituting u = 2 auxC t
			// turns its expectation into a plain Laguerre sum. Conditional on
			// u the cross-term variable is Gaussian, and the conditional
			// log-partition is log N(m; 0, u + c).
			scale := 2 * auxC
			for j, t := range laguerre.Nodes {
				u := scale * t
				us[j] = u
				logw[j] = logLagW[j] - m*m/(2*(u+c)) - math.Log(u+c)/2 - log2Pi/2
			}

			rowMax := floats.Max(logw)
			var z, ex, ex2, eu float64
			for j, lw := range logw {
				r := math.Exp(lw - rowMax)
				u := us[j]
				cond := c * u / (c + u) // conditional variance
				mean := m * u / (c + u) // conditional mean
				z += r
				ex += r * mean
				ex2 += r * (cond + mean*mean)
				eu += r * u
			}
			ex /= z
			ex2 /= z
			eu /= z

			newC := ex2 - ex*ex
			siteK, siteH, crossLogz := computeTermProxy(c, m, newC, ex, fraction)
			res.terms.DiagK[i] = siteK
			res.terms.H[i] = siteH

			// Auxiliary site: mean fixed at zero, matched variance E[U]/2.
			auxK, _, auxLogz := computeTermProxy(auxC, 0, eu/2, 0, fraction)
			res.terms.AuxK[i] = auxK

			res.crosslogz[i] = rowMax + math.Log(z) + crossLogz + auxLogz
		}
	})

	return res
}
