package ep

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/sparseep/core/linalg"
	"github.com/adalundhe/sparseep/core/quadrature"
)

// Result is the solver output: the final canonical and moment-form posterior,
// the final site terms, and the evidence trace.
type Result struct {
	Model   *Model
	Terms   *Terms
	Moments *Moments

	// LogEvidence is the EP free-energy estimate of the marginal
	// log-likelihood at the last accepted round. It is an approximation,
	// not an exact evidence computation.
	LogEvidence float64

	// Evidence holds the estimate after every accepted round.
	Evidence []float64

	Iterations   int
	Converged    bool
	StoppedEarly bool
	Elapsed      time.Duration
}

// Solve runs fractional EP on the given dataset. labels take values in
// {1, 2}; features is nsamples x nfeatures (append a bias column beforehand
// if desired); priorK is the symmetric positive-definite structural
// precision over the auxiliary scale variables.
//
// Solve is deterministic: identical inputs and configuration produce
// identical results. Errors are limited to invalid inputs and a
// FatalInitialization-style failure when the initial cavity distributions
// are already improper; mid-run numeric trouble is absorbed by step-size
// backoff and, at worst, surfaces as Result.StoppedEarly.
func Solve(labels []int, features [][]float64, priorK *linalg.SymMatrix, cfg Config) (*Result, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	design, err := NewDesign(labels, features)
	if err != nil {
		return nil, err
	}
	if priorK.Dim() != design.NFeatures() {
		return nil, fmt.Errorf("ep: prior precision is %dx%d but there are %d features",
			priorK.Dim(), priorK.Dim(), design.NFeatures())
	}

	priorFactor, err := linalg.Cholesky(priorK)
	if err != nil {
		return nil, fmt.Errorf("ep: prior precision: %w", err)
	}
	priorLogDet := priorFactor.LogDet()

	hermite, err := quadrature.Hermite(cfg.NWeights)
	if err != nil {
		return nil, err
	}
	laguerre, err := quadrature.Laguerre(cfg.NWeights)
	if err != nil {
		return nil, err
	}

	terms := newInitialTerms(design.NSamples(), design.NFeatures(), cfg.Lambda)
	model := newModel(design, priorK, terms)
	moments, err := toMoments(design, model)
	if err != nil {
		return nil, fmt.Errorf("ep: initial state: %w", err)
	}
	cavity, ok := projectAll(moments, terms, cfg.Fraction)
	if !ok {
		return nil, fmt.Errorf("ep: initial cavity distributions are improper: %w", linalg.ErrNotPositiveDefinite)
	}

	controller := &updateController{
		design:   design,
		priorK:   priorK,
		fraction: cfg.Fraction,
		maxStep:  cfg.MaxStepSize,
		logger:   logger,
	}

	res := &Result{
		Model:   model,
		Terms:   terms,
		Moments: moments,
	}

	step := cfg.MaxStepSize
	prevLogp := math.NaN()
	prevDelta := math.NaN()

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		res.Iterations = iter

		proposal := adfUpdate(design, cavity, hermite, laguerre, cfg.Fraction, cfg.Temperature)
		ctl := controller.apply(terms, proposal.terms, step)
		if ctl.aborted {
			res.StoppedEarly = true
			break
		}

		terms = ctl.terms
		model = ctl.model
		moments = ctl.moments
		cavity = ctl.cavity
		step = ctl.step

		logp := (floats.Sum(proposal.logz)+floats.Sum(proposal.crosslogz))/cfg.Fraction +
			moments.LogDet/2 + priorLogDet

		res.Model = model
		res.Terms = terms
		res.Moments = moments
		res.LogEvidence = logp
		res.Evidence = append(res.Evidence, logp)

		delta := logp - prevLogp
		logger.Debug("ep round accepted",
			"iter", iter, "logp", logp, "delta", delta, "step", step)

		if !math.IsNaN(prevDelta) && delta*prevDelta < 0 {
			// Evidence oscillation: damp harder.
			step /= 2
		}
		if !math.IsNaN(prevLogp) && math.Abs(delta) <= step*cfg.Tol {
			res.Converged = true
			break
		}
		prevDelta = delta
		prevLogp = logp
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
