// Package bias measures the signed error of an estimator at small and medium
// cardinalities, the region where raw HyperLogLog estimates drift upward and
// where HLL++ style corrections are calibrated.
package bias

import (
	"context"
	"encoding/json"
	"maps"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"HLL-EVAL/general"
	"HLL-EVAL/report"
	"HLL-EVAL/simulation"
)

var ErrInvalidRuns = errors.New("invalid number of runs, must be at least 1")

type DataPoint struct {
	Cardinality  uint64  `json:"cardinality"`
	MeanEstimate float64 `json:"meanEstimate"`
	Bias         float64 `json:"bias"`
}

type Options struct {
	Precision uint8
	Runs      int
	// MaxCardinality defaults to 5 * 2^Precision.
	MaxCardinality uint64
	// Seed drives the jitter of the sample schedule.
	Seed        uint64
	Parallelism int
}

// Samples picks the cardinalities to measure: dense below 500, sparser up to
// 10k, then every ~1.5k up to maxCardinality. A random fraction of points get
// a nearby extra sample so the schedule does not alias with register counts.
func Samples(maxCardinality uint64, rng *rand.Rand) []uint64 {
	samples := make(map[uint64]struct{})
	add := func(n uint64) {
		if n >= 1 && n <= maxCardinality {
			samples[n] = struct{}{}
		}
	}
	for i := uint64(1); i <= 500; i += 10 {
		add(i)
		if rng.Float64() < 0.2 {
			add(i + 1)
		}
	}
	for i := uint64(500); i <= 10000; i += 98 {
		add(i)
		if rng.Float64() < 0.24 {
			add(i + 21)
		}
	}
	for i := uint64(10000); i <= maxCardinality; i += 1499 {
		add(i)
		if rng.Float64() < 0.3 {
			add(i + 181)
		}
	}
	add(maxCardinality)
	return slices.Sorted(maps.Keys(samples))
}

// Compute averages the estimate at every sample cardinality over opts.Runs
// independent fills. Each run inserts keys from its own offset once and reads
// the estimate as it passes each sample.
func Compute(ctx context.Context, factory general.Factory, opts Options) ([]DataPoint, error) {
	if opts.Runs < 1 {
		return nil, ErrInvalidRuns
	}
	if err := general.CheckPrecision(opts.Precision); err != nil {
		return nil, err
	}
	maxCardinality := opts.MaxCardinality
	if maxCardinality == 0 {
		maxCardinality = 5 << opts.Precision
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	samples := Samples(maxCardinality, rand.New(rand.NewPCG(opts.Seed, 0)))

	estimates := make([][]float64, opts.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for run := 0; run < opts.Runs; run++ {
		g.Go(func() error {
			c, err := factory(opts.Precision)
			if err != nil {
				return errors.Wrapf(err, "run %d", run)
			}
			offset := simulation.SpreadOffset(run, opts.Runs)
			out := make([]float64, len(samples))
			next := 0
			for x := uint64(1); next < len(samples); x++ {
				c.Insert(x + offset)
				if x == samples[next] {
					out[next] = c.Estimate()
					next++
				}
				if x&0xffff == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
			}
			estimates[run] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]DataPoint, len(samples))
	column := make([]float64, opts.Runs)
	for i, n := range samples {
		for run := range estimates {
			column[run] = estimates[run][i]
		}
		mean := stat.Mean(column, nil)
		points[i] = DataPoint{Cardinality: n, MeanEstimate: mean, Bias: mean - float64(n)}
	}
	log.WithFields(log.Fields{
		"precision": opts.Precision,
		"runs":      opts.Runs,
		"samples":   len(samples),
	}).Debug("bias computed")
	return points, nil
}

// WriteFile stores points as indented JSON under dir and returns the path.
func WriteFile(dir, estimator string, precision uint8, points []DataPoint) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating output directory %s", dir)
	}
	path := filepath.Join(dir, report.BaseName(estimator, precision)+"-bias.json")
	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal bias data")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
