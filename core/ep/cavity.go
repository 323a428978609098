package ep

// Cavity holds the per-variable moments with a fraction of each site's
// contribution removed. Transient: it lives only between one moment
// conversion and the next moment-matching step. The auxiliary group carries
// no mean (it is identically zero).
type Cavity struct {
	HatB []float64 // per-sample projected variance
	Hatn []float64 // per-sample projected mean

	DiagC []float64 // per-feature weight variance
	M     []float64 // per-feature weight mean

	AuxC []float64 // per-feature auxiliary variance
}

// rankOne applies the scalar Sherman-Morrison update: adding a site with
// canonical parameters (K, h) to a marginal with moments (C, m) yields
//
//	newC = C / (1 + K C)
//	newm = newC (m/C + h)
//
// Removing a site is the same update with negated parameters.
func rankOne(c, m, k, h float64) (float64, float64) {
	newC := c / (1 + k*c)
	newM := newC * (m/c + h)
	return newC, newM
}

// rankOneVar is rankOne for mean-free marginals.
func rankOneVar(c, k float64) float64 {
	return c / (1 + k*c)
}

// projectAll removes fraction*term from every marginal, producing the cavity
// distributions for one moment-matching pass. ok is true iff every resulting
// variance across all three groups is strictly positive; an improper cavity
// is reported, never raised.
func projectAll(mom *Moments, t *Terms, fraction float64) (*Cavity, bool) {
	nsamples := len(mom.HatB)
	nfeatures := len(mom.DiagC)

	cav := &Cavity{
		HatB:  make([]float64, nsamples),
		Hatn:  make([]float64, nsamples),
		DiagC: make([]float64, nfeatures),
		M:     make([]float64, nfeatures),
		AuxC:  make([]float64, nfeatures),
	}

	ok := true
	for k := 0; k < nsamples; k++ {
		c, m := rankOne(mom.HatB[k], mom.Hatn[k], -fraction*t.HatK[k], -fraction*t.HatH[k])
		cav.HatB[k] = c
		cav.Hatn[k] = m
		if !(c > 0) {
			ok = false
		}
	}
	for i := 0; i < nfeatures; i++ {
		c, m := rankOne(mom.DiagC[i], mom.M[i], -fraction*t.DiagK[i], -fraction*t.H[i])
		cav.DiagC[i] = c
		cav.M[i] = m
		if !(c > 0) {
			ok = false
		}

		ac := rankOneVar(mom.AuxC[i], -fraction*t.AuxK[i])
		cav.AuxC[i] = ac
		if !(ac > 0) {
			ok = false
		}
	}

	return cav, ok
}
