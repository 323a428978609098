// Package linalg wraps the dense symmetric-matrix primitives the EP solver
// needs: a symmetric matrix with explicit diagonal access and Cholesky
// factorization with a positive-definiteness check.
package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPositiveDefinite reports a failed Cholesky factorization.
var ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")

// SymMatrix is a symmetric matrix with explicit diagonal accessors.
// It hides the storage layout of the underlying representation; callers
// manipulate diagonals through Diagonal/AddToDiagonal rather than index
// arithmetic.
type SymMatrix struct {
	sym *mat.SymDense
}

// NewSymMatrix returns an n x n zero symmetric matrix.
func NewSymMatrix(n int) *SymMatrix {
	return &SymMatrix{sym: mat.NewSymDense(n, nil)}
}

// NewDiagonal returns a symmetric matrix with the given diagonal and zeros
// elsewhere.
func NewDiagonal(diag []float64) *SymMatrix {
	s := NewSymMatrix(len(diag))
	for i, v := range diag {
		s.sym.SetSym(i, i, v)
	}
	return s
}

// Dim returns the matrix order.
func (s *SymMatrix) Dim() int { return s.sym.SymmetricDim() }

// At returns the element at (i, j).
func (s *SymMatrix) At(i, j int) float64 { return s.sym.At(i, j) }

// Set sets the (i, j) and (j, i) elements.
func (s *SymMatrix) Set(i, j int, v float64) { s.sym.SetSym(i, j, v) }

// Clone returns a deep copy.
func (s *SymMatrix) Clone() *SymMatrix {
	n := s.Dim()
	dst := mat.NewSymDense(n, nil)
	dst.CopySym(s.sym)
	return &SymMatrix{sym: dst}
}

// Diagonal returns a copy of the diagonal.
func (s *SymMatrix) Diagonal() []float64 {
	n := s.Dim()
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = s.sym.At(i, i)
	}
	return d
}

// AddToDiagonal adds v elementwise to the diagonal.
func (s *SymMatrix) AddToDiagonal(v []float64) error {
	n := s.Dim()
	if len(v) != n {
		return fmt.Errorf("linalg: diagonal length %d does not match matrix order %d", len(v), n)
	}
	for i := 0; i < n; i++ {
		s.sym.SetSym(i, i, s.sym.At(i, i)+v[i])
	}
	return nil
}

// Sym exposes the underlying gonum matrix for read-only use.
func (s *SymMatrix) Sym() *mat.SymDense { return s.sym }

// Factor is a Cholesky factorization of a positive-definite SymMatrix.
type Factor struct {
	chol mat.Cholesky
	n    int
}

// Cholesky factorizes s, returning ErrNotPositiveDefinite when s is not
// positive definite. This is the solver's sole PD test.
func Cholesky(s *SymMatrix) (*Factor, error) {
	f := &Factor{n: s.Dim()}
	if ok := f.chol.Factorize(s.sym); !ok {
		return nil, ErrNotPositiveDefinite
	}
	return f, nil
}

// LogDet returns the log-determinant of the factorized matrix.
func (f *Factor) LogDet() float64 { return f.chol.LogDet() }

// SolveVec solves A x = b.
func (f *Factor) SolveVec(b []float64) ([]float64, error) {
	if len(b) != f.n {
		return nil, fmt.Errorf("linalg: rhs length %d does not match matrix order %d", len(b), f.n)
	}
	var x mat.VecDense
	if err := f.chol.SolveVecTo(&x, mat.NewVecDense(f.n, b)); err != nil {
		return nil, fmt.Errorf("linalg: triangular solve: %w", err)
	}
	out := make([]float64, f.n)
	copy(out, x.RawVector().Data)
	return out, nil
}

// Inverse returns the full inverse of the factorized matrix.
func (f *Factor) Inverse() (*SymMatrix, error) {
	var inv mat.SymDense
	if err := f.chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("linalg: inverse from Cholesky: %w", err)
	}
	return &SymMatrix{sym: &inv}, nil
}

// InverseDiagonal returns the diagonal of the inverse of the factorized
// matrix.
func (f *Factor) InverseDiagonal() ([]float64, error) {
	inv, err := f.Inverse()
	if err != nil {
		return nil, err
	}
	return inv.Diagonal(), nil
}
