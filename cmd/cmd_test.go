package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HLL-EVAL/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func smallRun(t *testing.T) {
	t.Setenv("HLLEVAL_ESTIMATORS", "hll/atomic")
	t.Setenv("HLLEVAL_PRECISIONS", "8")
	t.Setenv("HLLEVAL_ACCURACY_MAXSIZE", "1000")
	t.Setenv("HLLEVAL_ACCURACY_STEP", "linear:250")
	t.Setenv("HLLEVAL_ACCURACY_TRIALS", "2")
	t.Setenv("HLLEVAL_PERF_WORKERS", "2")
	t.Setenv("HLLEVAL_PERF_INSERTOPS", "1000")
	t.Setenv("HLLEVAL_PERF_QUERYOPS", "10")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hll/atomic")
	assert.Contains(t, out, "exact/roaring64")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
}

func TestTrialCommand(t *testing.T) {
	smallRun(t)
	out, err := execute(t, "trial", "hll/atomic")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "250,"))
	assert.True(t, strings.HasPrefix(lines[3], "1000,"))
}

func TestTrialCommandUnknownEstimator(t *testing.T) {
	_, err := execute(t, "trial", "nope")
	assert.Error(t, err)
}

func TestAccuracyCommandWritesCurves(t *testing.T) {
	smallRun(t)
	dir := t.TempDir()
	t.Setenv("HLLEVAL_ACCURACY_OUTPUTDIR", dir)

	_, err := execute(t, "accuracy")
	require.NoError(t, err)

	data, err := os.ReadFile(report.FileName(dir, "hll/atomic", 8))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)
	assert.Equal(t, filepath.Join(dir, "hll_atomic-p8.csv"), report.FileName(dir, "hll/atomic", 8))
}

func TestPerfCommand(t *testing.T) {
	smallRun(t)
	out, err := execute(t, "perf")
	require.NoError(t, err)
	assert.Contains(t, out, "hll/atomic workers=2")
	assert.Equal(t, 1, strings.Count(out, "estimate="))
	assert.NotContains(t, out, "Final count:")
}

func TestBiasCommand(t *testing.T) {
	smallRun(t)
	dir := t.TempDir()
	t.Setenv("HLLEVAL_ACCURACY_OUTPUTDIR", dir)

	_, err := execute(t, "bias", "--runs", "2")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "hll_atomic-p8-bias.json"))
	assert.NoError(t, err)
}

func TestBiasCommandReadsEnvironment(t *testing.T) {
	smallRun(t)
	dir := t.TempDir()
	t.Setenv("HLLEVAL_ACCURACY_OUTPUTDIR", dir)
	t.Setenv("HLLEVAL_BIAS_RUNS", "2")
	t.Setenv("HLLEVAL_BIAS_MAXCARDINALITY", "100")

	_, err := execute(t, "bias")
	require.NoError(t, err)
	assert.Equal(t, 2, config.Bias.Runs)
	assert.Equal(t, uint64(100), config.Bias.MaxCardinality)
	_, err = os.Stat(filepath.Join(dir, "hll_atomic-p8-bias.json"))
	assert.NoError(t, err)
}
