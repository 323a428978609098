package ep

import (
	"github.com/adalundhe/sparseep/core/linalg"
)

// Model is the accumulating global posterior in canonical form. The full
// weight precision is A' diag(HatK) A + diag(DiagK) and H is the canonical
// mean A' HatH + termH; AuxK is the structural prior K plus the diagonal
// auxiliary site contributions.
type Model struct {
	HatK  []float64
	DiagK []float64
	H     []float64
	AuxK  *linalg.SymMatrix
}

// newModel rebuilds the canonical model implied by the given site terms.
// The canonical form is linear in the terms, so "remove old sites, add new"
// is realized as reconstruction from scratch.
func newModel(d *Design, priorK *linalg.SymMatrix, t *Terms) *Model {
	hatK := make([]float64, len(t.HatK))
	copy(hatK, t.HatK)
	diagK := make([]float64, len(t.DiagK))
	copy(diagK, t.DiagK)

	h := d.MulT(t.HatH)
	for i, v := range t.H {
		h[i] += v
	}

	auxK := priorK.Clone()
	// priorK dimensions are validated against the design up front, so this
	// cannot fail.
	_ = auxK.AddToDiagonal(t.AuxK)

	return &Model{HatK: hatK, DiagK: diagK, H: h, AuxK: auxK}
}

// validTerms reports whether every accumulated sample and feature precision
// is strictly positive. Both moment routes require this.
func (m *Model) validTerms() bool {
	for _, v := range m.HatK {
		if v <= 0 {
			return false
		}
	}
	for _, v := range m.DiagK {
		if v <= 0 {
			return false
		}
	}
	return true
}
