package bias

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HLL-EVAL/general"
	"HLL-EVAL/types/external"
	"HLL-EVAL/types/hll"
)

func TestSamplesAreSortedAndBounded(t *testing.T) {
	for _, maxCardinality := range []uint64{1, 300, 1280, 50_000} {
		s := Samples(maxCardinality, rand.New(rand.NewPCG(1, 2)))
		require.NotEmpty(t, s)
		assert.True(t, slices.IsSorted(s))
		assert.Equal(t, uint64(1), s[0])
		assert.Equal(t, maxCardinality, s[len(s)-1])
		assert.Len(t, slices.Compact(slices.Clone(s)), len(s))
	}
}

func TestSamplesAreDeterministicPerSeed(t *testing.T) {
	a := Samples(20_000, rand.New(rand.NewPCG(9, 0)))
	b := Samples(20_000, rand.New(rand.NewPCG(9, 0)))
	assert.Equal(t, a, b)
}

func TestComputeExactEstimatorHasNoBias(t *testing.T) {
	points, err := Compute(context.Background(), external.NewExact, Options{Precision: 6, Runs: 3})
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, uint64(5<<6), points[len(points)-1].Cardinality)
	for _, p := range points {
		assert.Equal(t, float64(p.Cardinality), p.MeanEstimate)
		assert.Equal(t, 0.0, p.Bias)
	}
}

func TestComputeDenseBiasIsSmallAtLargeCardinality(t *testing.T) {
	points, err := Compute(context.Background(), hll.NewDense, Options{Precision: 8, Runs: 8, Seed: 3})
	require.NoError(t, err)
	last := points[len(points)-1]
	assert.Equal(t, uint64(1280), last.Cardinality)
	assert.Less(t, math.Abs(last.Bias)/float64(last.Cardinality), 0.1)
}

func TestComputeValidates(t *testing.T) {
	_, err := Compute(context.Background(), hll.NewDense, Options{Precision: 8})
	assert.ErrorIs(t, err, ErrInvalidRuns)

	_, err = Compute(context.Background(), hll.NewDense, Options{Precision: 2, Runs: 1})
	assert.ErrorIs(t, err, general.ErrPrecisionOutOfRange)
}

func TestWriteFile(t *testing.T) {
	points := []DataPoint{{Cardinality: 10, MeanEstimate: 11, Bias: 1}}
	path, err := WriteFile(t.TempDir(), "hll/dense", 8, points)
	require.NoError(t, err)
	assert.Equal(t, "hll_dense-p8-bias.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []DataPoint
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, points, got)
}
