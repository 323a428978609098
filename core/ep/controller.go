package ep

import (
	"log/slog"

	"github.com/adalundhe/sparseep/core/linalg"
)

// Step size floor: below this no valid damped blend exists and the round
// aborts, keeping the last accepted state.
const minStepSize = 1e-10

// updateController turns a full-update proposal into an accepted state by
// damping. Each attempt blends proposal and current terms with the running
// step size, rebuilds the candidate canonical model, and validates it:
// positive accumulated precisions, a positive-definite auxiliary precision,
// and proper cavity distributions. Failures halve the step size and retry;
// acceptance grows it by 1.9 up to the configured maximum.
type updateController struct {
	design   *Design
	priorK   *linalg.SymMatrix
	fraction float64
	maxStep  float64
	logger   *slog.Logger
}

// controllerResult is one resolved round: either an accepted candidate state
// or an abort after step-size collapse.
type controllerResult struct {
	accepted bool
	aborted  bool

	terms   *Terms
	model   *Model
	moments *Moments
	cavity  *Cavity

	step     float64 // step size to carry into the next round
	attempts int
}

func (c *updateController) apply(current, full *Terms, step float64) *controllerResult {
	res := &controllerResult{step: step}

	for {
		res.attempts++
		combined := combineTerms(full, current, step)
		candidate := newModel(c.design, c.priorK, combined)

		if candidate.validTerms() {
			moments, err := toMoments(c.design, candidate)
			if err == nil {
				cavity, ok := projectAll(moments, combined, c.fraction)
				if ok {
					res.accepted = true
					res.terms = combined
					res.model = candidate
					res.moments = moments
					res.cavity = cavity
					res.step = step * 1.9
					if res.step > c.maxStep {
						res.step = c.maxStep
					}
					return res
				}
			}
		}

		step /= 2
		if step < minStepSize {
			c.logger.Warn("step size collapsed, keeping last accepted state",
				"step", step, "attempts", res.attempts)
			res.aborted = true
			res.step = step
			return res
		}
		c.logger.Debug("candidate rejected, halving step size",
			"step", step, "attempt", res.attempts)
	}
}
