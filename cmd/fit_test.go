package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	path := writeFile(t, "data.csv", "1,0.5,-1.25\n2,3,4\n")

	labels, features, err := loadDataset(path, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, labels)
	assert.Equal(t, [][]float64{{0.5, -1.25}, {3, 4}}, features)
}

func TestLoadDataset_BiasColumn(t *testing.T) {
	path := writeFile(t, "data.csv", "1,0.5\n2,3\n")

	_, features, err := loadDataset(path, true)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5, 1}, {3, 1}}, features)
}

func TestLoadDataset_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := loadDataset(filepath.Join(t.TempDir(), "missing.csv"), false)
		assert.Error(t, err)
	})

	t.Run("bad label", func(t *testing.T) {
		path := writeFile(t, "data.csv", "one,0.5\n")
		_, _, err := loadDataset(path, false)
		assert.Error(t, err)
	})

	t.Run("bad feature", func(t *testing.T) {
		path := writeFile(t, "data.csv", "1,abc\n")
		_, _, err := loadDataset(path, false)
		assert.Error(t, err)
	})

	t.Run("label only", func(t *testing.T) {
		path := writeFile(t, "data.csv", "1\n")
		_, _, err := loadDataset(path, false)
		assert.Error(t, err)
	})
}

func TestLoadOptions(t *testing.T) {
	path := writeFile(t, "opts.yaml", "fraction: 0.5\nniter: 25\ntemperature: 0.8\n")

	cfg, err := loadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Fraction)
	assert.Equal(t, 25, cfg.MaxIter)
	assert.Equal(t, 0.8, cfg.Temperature)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50, cfg.NWeights)
	assert.Equal(t, 1e-5, cfg.Tol)
}

func TestLoadOptions_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "opts.yaml", "fraction: 0.5\nmystery: 1\n")

	_, err := loadOptions(path)
	assert.Error(t, err)
}
