package ep

// Terms holds the canonical parameters of every site approximation.
//
// Per sample: HatK/HatH approximate the logistic likelihood factor along the
// sample's design row. Per feature: DiagK/H approximate the weight/scale
// cross term, and AuxK is the diagonal site contribution to the auxiliary
// scale-variable precision. Terms are replaced wholesale on every accepted
// round; they are never partially updated.
type Terms struct {
	HatK []float64 // per-sample site precision
	HatH []float64 // per-sample site canonical mean

	DiagK []float64 // per-feature site precision
	H     []float64 // per-feature site canonical mean

	AuxK []float64 // per-feature auxiliary site precision (diagonal)
}

// Sample sites start at this jitter rather than exactly zero so that the
// Woodbury moment route, which divides by the per-sample precisions, stays
// defined before the first accepted round.
const initialSampleJitter = 1e-12

// newInitialTerms returns the regularizing initial guess: feature and
// auxiliary site precisions start at lambda, all canonical means at zero.
func newInitialTerms(nsamples, nfeatures int, lambda float64) *Terms {
	t := &Terms{
		HatK:  make([]float64, nsamples),
		HatH:  make([]float64, nsamples),
		DiagK: make([]float64, nfeatures),
		H:     make([]float64, nfeatures),
		AuxK:  make([]float64, nfeatures),
	}
	for k := range t.HatK {
		t.HatK[k] = initialSampleJitter
	}
	for i := 0; i < nfeatures; i++ {
		t.DiagK[i] = lambda
		t.AuxK[i] = lambda
	}
	return t
}

func newEmptyTerms(nsamples, nfeatures int) *Terms {
	return &Terms{
		HatK:  make([]float64, nsamples),
		HatH:  make([]float64, nsamples),
		DiagK: make([]float64, nfeatures),
		H:     make([]float64, nfeatures),
		AuxK:  make([]float64, nfeatures),
	}
}

// Clone returns a deep copy.
func (t *Terms) Clone() *Terms {
	c := newEmptyTerms(len(t.HatK), len(t.DiagK))
	copy(c.HatK, t.HatK)
	copy(c.HatH, t.HatH)
	copy(c.DiagK, t.DiagK)
	copy(c.H, t.H)
	copy(c.AuxK, t.AuxK)
	return c
}

// combineTerms blends the freshly fitted full-update terms with the current
// ones: step*full + (1-step)*current, over the fixed field list. step = 1
// reproduces full, step = 0 reproduces current.
func combineTerms(full, current *Terms, step float64) *Terms {
	blend := func(dst, a, b []float64) {
		for i := range dst {
			dst[i] = step*a[i] + (1-step)*b[i]
		}
	}
	c := newEmptyTerms(len(full.HatK), len(full.DiagK))
	blend(c.HatK, full.HatK, current.HatK)
	blend(c.HatH, full.HatH, current.HatH)
	blend(c.DiagK, full.DiagK, current.DiagK)
	blend(c.H, full.H, current.H)
	blend(c.AuxK, full.AuxK, current.AuxK)
	return c
}
