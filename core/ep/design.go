package ep

import (
	"errors"
	"fmt"

	"github.com/viterin/vek"
)

// ErrBadLabel reports a class label outside {1, 2}.
var ErrBadLabel = errors.New("ep: class labels must be 1 or 2")

// Design is the sign-flipped feature matrix. Row k is the k-th sample's
// feature vector multiplied by +1 for class 1 and -1 for class 2, so every
// likelihood site shares the same canonical form. Immutable after
// construction.
type Design struct {
	rows      [][]float64
	nsamples  int
	nfeatures int
}

// NewDesign builds the design matrix from labels and raw features.
func NewDesign(labels []int, features [][]float64) (*Design, error) {
	if len(labels) != len(features) {
		return nil, fmt.Errorf("ep: %d labels for %d samples", len(labels), len(features))
	}
	if len(features) == 0 {
		return nil, errors.New("ep: empty dataset")
	}
	nfeatures := len(features[0])
	if nfeatures == 0 {
		return nil, errors.New("ep: samples have no features")
	}

	rows := make([][]float64, len(features))
	for k, feat := range features {
		if len(feat) != nfeatures {
			return nil, fmt.Errorf("ep: sample %d has %d features, expected %d", k, len(feat), nfeatures)
		}
		sign := 0.0
		switch labels[k] {
		case 1:
			sign = 1
		case 2:
			sign = -1
		default:
			return nil, fmt.Errorf("%w: sample %d has label %d", ErrBadLabel, k, labels[k])
		}
		row := make([]float64, nfeatures)
		copy(row, feat)
		vek.MulNumber_Inplace(row, sign)
		rows[k] = row
	}

	return &Design{rows: rows, nsamples: len(rows), nfeatures: nfeatures}, nil
}

// NSamples returns the number of samples.
func (d *Design) NSamples() int { return d.nsamples }

// NFeatures returns the number of features.
func (d *Design) NFeatures() int { return d.nfeatures }

// Row returns the k-th sign-flipped sample. Callers must not modify it.
func (d *Design) Row(k int) []float64 { return d.rows[k] }

// Mul computes A x (one entry per sample).
func (d *Design) Mul(x []float64) []float64 {
	out := make([]float64, d.nsamples)
	for k, row := range d.rows {
		out[k] = vek.Dot(row, x)
	}
	return out
}

// MulT computes A' y (one entry per feature).
func (d *Design) MulT(y []float64) []float64 {
	out := make([]float64, d.nfeatures)
	for k, row := range d.rows {
		yk := y[k]
		if yk == 0 {
			continue
		}
		for i, a := range row {
			out[i] += yk * a
		}
	}
	return out
}
