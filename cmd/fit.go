package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adalundhe/sparseep/core/ep"
	"github.com/adalundhe/sparseep/core/linalg"
)

var fitFlags struct {
	dataPath    string
	optionsPath string
	priorScale  float64
	bias        bool
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a sparse Bayesian classifier from a CSV dataset",
	Long: `Fit reads a CSV file whose first column is the class label (1 or 2)
and whose remaining columns are features, then runs the EP solver and prints
the posterior weight summary and the evidence estimate.

The prior precision defaults to prior-scale times the identity; solver
options can be overridden with a YAML file (keys: maxstepsize, fraction,
niter, tol, nweights, temperature, lambda). Unknown keys are rejected.`,
	RunE: runFit,
}

func init() {
	fitCmd.Flags().StringVar(&fitFlags.dataPath, "data", "", "CSV dataset path (required)")
	fitCmd.Flags().StringVar(&fitFlags.optionsPath, "options", "", "YAML solver options path")
	fitCmd.Flags().Float64Var(&fitFlags.priorScale, "prior-scale", 0.1, "diagonal scale of the prior precision")
	fitCmd.Flags().BoolVar(&fitFlags.bias, "bias", false, "append a constant bias feature")
	_ = fitCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("run_id", uuid.NewString())

	labels, features, err := loadDataset(fitFlags.dataPath, fitFlags.bias)
	if err != nil {
		return err
	}

	cfg := ep.DefaultConfig()
	if fitFlags.optionsPath != "" {
		cfg, err = loadOptions(fitFlags.optionsPath)
		if err != nil {
			return err
		}
	}
	cfg.Logger = logger

	if fitFlags.priorScale <= 0 {
		return fmt.Errorf("prior-scale must be positive, got %v", fitFlags.priorScale)
	}
	nfeatures := len(features[0])
	diag := make([]float64, nfeatures)
	for i := range diag {
		diag[i] = fitFlags.priorScale
	}
	priorK := linalg.NewDiagonal(diag)

	logger.Info("fitting model",
		"samples", len(labels), "features", nfeatures,
		"fraction", cfg.Fraction, "max_iter", cfg.MaxIter)

	res, err := ep.Solve(labels, features, priorK, cfg)
	if err != nil {
		return err
	}

	switch {
	case res.Converged:
		logger.Info("converged", "iterations", res.Iterations, "elapsed", res.Elapsed)
	case res.StoppedEarly:
		logger.Warn("stopped early on step-size collapse, reporting last accepted state",
			"iterations", res.Iterations, "elapsed", res.Elapsed)
	default:
		logger.Warn("iteration budget exhausted before convergence",
			"iterations", res.Iterations, "elapsed", res.Elapsed)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "log evidence: %.6f\n", res.LogEvidence)
	fmt.Fprintln(out, "weight posterior (mean, variance, aux variance):")
	for i := range res.Moments.M {
		fmt.Fprintf(out, "  w[%d]  % .6f  %.6f  %.6f\n",
			i, res.Moments.M[i], res.Moments.DiagC[i], res.Moments.AuxC[i])
	}
	return nil
}

// loadDataset parses a CSV file with the label in the first column and
// features in the remaining ones.
func loadDataset(path string, bias bool) ([]int, [][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("dataset %s is empty", path)
	}

	labels := make([]int, 0, len(records))
	features := make([][]float64, 0, len(records))
	for n, rec := range records {
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("row %d: need a label and at least one feature", n+1)
		}
		label, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: bad label %q: %w", n+1, rec[0], err)
		}
		row := make([]float64, 0, len(rec))
		for _, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: bad feature %q: %w", n+1, cell, err)
			}
			row = append(row, v)
		}
		if bias {
			row = append(row, 1)
		}
		labels = append(labels, label)
		features = append(features, row)
	}
	return labels, features, nil
}

// loadOptions decodes solver options from YAML on top of the defaults,
// rejecting unknown keys.
func loadOptions(path string) (ep.Config, error) {
	cfg := ep.DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open options: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse options %s: %w", path, err)
	}
	return cfg, nil
}
