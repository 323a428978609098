package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sparseep",
	Short: "Sparseep - approximate Bayesian inference for sparse linear classifiers",
	Long: `Sparseep fits a Bayesian linear classification model with a
multivariate-Laplace prior using fractional Expectation Propagation,
reporting posterior means and variances plus an estimate of the model
evidence.`,
}

func Execute() error {
	return rootCmd.Execute()
}
