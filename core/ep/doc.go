// Package ep implements fractional Expectation Propagation for Bayesian
// linear classification under a multivariate-Laplace prior.
//
// The prior is represented as a Gaussian scale mixture: each regression
// weight is Gaussian conditional on an auxiliary scale variable, and the
// scale variables carry the structural prior precision K. The posterior is
// approximated by Gaussian site terms, one per sample (logistic likelihood),
// one per feature (weight/scale cross term), and one per auxiliary variable.
//
// Each round the solver converts the canonical representation to moments,
// removes a fraction of every site to form cavity distributions, refits the
// sites by quadrature-based moment matching, and commits a damped blend of
// old and new sites after validating positive definiteness. Step size adapts:
// it grows on acceptance, halves on rejection or when the evidence estimate
// oscillates, and the run stops early if it collapses entirely.
package ep
