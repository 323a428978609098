// Package quadrature constructs Gauss-Hermite and Gauss-Laguerre rules.
//
// Rules are built with the Golub-Welsch algorithm: the nodes of an n-point
// Gaussian rule are the eigenvalues of the symmetric tridiagonal Jacobi
// matrix of the orthogonal-polynomial recurrence, and the weights are
// mu0 * q0^2 where q0 is the first component of the corresponding normalized
// eigenvector and mu0 is the total mass of the weight function.
//
// Construction costs an n x n symmetric eigendecomposition, so rules are
// cached by (family, size). Callers treat a Rule as immutable.
package quadrature

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"
)

// Rule is a fixed set of quadrature nodes and weights.
//
// For Hermite rules the weight function is exp(-x^2) over (-inf, inf);
// for Laguerre rules it is exp(-x) over (0, inf).
type Rule struct {
	Nodes   []float64
	Weights []float64
}

type family int

const (
	familyHermite family = iota
	familyLaguerre
)

type cacheKey struct {
	fam family
	n   int
}

// Small fixed-size cache: solvers ask for one Hermite and one Laguerre rule
// per configuration, so a handful of entries covers repeated runs.
var ruleCache, _ = lru.New[cacheKey, *Rule](16)

// Hermite returns the n-point Gauss-Hermite rule (weight exp(-x^2)).
func Hermite(n int) (*Rule, error) {
	return lookup(familyHermite, n)
}

// Laguerre returns the n-point Gauss-Laguerre rule (weight exp(-x)).
func Laguerre(n int) (*Rule, error) {
	return lookup(familyLaguerre, n)
}

func lookup(fam family, n int) (*Rule, error) {
	if n < 1 {
		return nil, fmt.Errorf("quadrature: rule size must be at least 1, got %d", n)
	}
	key := cacheKey{fam: fam, n: n}
	if r, ok := ruleCache.Get(key); ok {
		return r, nil
	}
	r, err := build(fam, n)
	if err != nil {
		return nil, err
	}
	ruleCache.Add(key, r)
	return r, nil
}

// build assembles the Jacobi matrix for the requested family and extracts
// nodes and weights from its eigendecomposition.
func build(fam family, n int) (*Rule, error) {
	jacobi := mat.NewSymDense(n, nil)
	var mu0 float64

	switch fam {
	case familyHermite:
		// Physicists' Hermite recurrence: a_i = 0, b_i = sqrt(i/2).
		mu0 = math.Sqrt(math.Pi)
		for i := 1; i < n; i++ {
			jacobi.SetSym(i-1, i, math.Sqrt(float64(i)/2))
		}
	case familyLaguerre:
		// Laguerre (alpha = 0) recurrence: a_i = 2i+1, b_i = i.
		mu0 = 1
		for i := 0; i < n; i++ {
			jacobi.SetSym(i, i, float64(2*i+1))
		}
		for i := 1; i < n; i++ {
			jacobi.SetSym(i-1, i, float64(i))
		}
	default:
		return nil, fmt.Errorf("quadrature: unknown family %d", fam)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(jacobi, true); !ok {
		return nil, fmt.Errorf("quadrature: eigendecomposition failed for %d-point rule", n)
	}

	nodes := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	weights := make([]float64, n)
	for j := 0; j < n; j++ {
		q0 := vecs.At(0, j)
		weights[j] = mu0 * q0 * q0
	}

	return &Rule{Nodes: nodes, Weights: weights}, nil
}
