package simulation

import (
	"context"
	"iter"
	"math"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"HLL-EVAL/general"
)

var ErrNoTrials = errors.New("invalid number of trials, must be at least 1")

// OffsetFunc picks the key offset of trial i out of n.
type OffsetFunc func(i, n int) uint64

// SpreadOffset spaces trials evenly over the 64-bit key space.
func SpreadOffset(i, n int) uint64 {
	return uint64(i) * (math.MaxUint64 / uint64(n))
}

type AggregateOptions struct {
	Trial     TrialOptions
	NumTrials int
	// Parallelism bounds concurrently running trials. Zero means GOMAXPROCS.
	Parallelism int
	// Offset defaults to SpreadOffset.
	Offset OffsetFunc
}

func (o AggregateOptions) Validate() error {
	if o.NumTrials < 1 {
		return ErrNoTrials
	}
	return o.Trial.Validate()
}

// Row is the error distribution across trials at one checkpoint.
type Row struct {
	Items uint64
	Mean  float64
	Min   float64
	Max   float64
}

// AggregateResult reduces a batch of trials lazily: each Row is computed on
// demand from the retained trials. Its length is that of the shortest trial.
type AggregateResult struct {
	Estimator string
	Trials    []TrialResult
	length    int
}

// Aggregate runs NumTrials independent trials in parallel and reduces them.
// The first failing trial cancels the rest and its error is returned.
func Aggregate(ctx context.Context, factory general.Factory, opts AggregateOptions) (*AggregateResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	offset := opts.Offset
	if offset == nil {
		offset = SpreadOffset
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	trials := make([]TrialResult, opts.NumTrials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < opts.NumTrials; i++ {
		g.Go(func() error {
			trialOpts := opts.Trial
			trialOpts.Offset = offset(i, opts.NumTrials)
			res, err := RunTrial(gctx, factory, trialOpts)
			if err != nil {
				return errors.Wrapf(err, "trial %d", i)
			}
			trials[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg, err := Reduce(trials)
	if err != nil {
		return nil, err
	}
	diverged := 0
	for _, t := range trials {
		if t.Diverged {
			diverged++
		}
	}
	log.WithFields(log.Fields{
		"estimator": agg.Estimator,
		"trials":    len(trials),
		"diverged":  diverged,
		"rows":      agg.Len(),
	}).Debug("trials aggregated")
	return agg, nil
}

// Reduce aligns trials on checkpoint index, truncating to the shortest one.
func Reduce(trials []TrialResult) (*AggregateResult, error) {
	if len(trials) == 0 {
		return nil, ErrNoTrials
	}
	length := trials[0].Len()
	for _, t := range trials[1:] {
		length = min(length, t.Len())
	}
	return &AggregateResult{
		Estimator: trials[0].Estimator,
		Trials:    trials,
		length:    length,
	}, nil
}

func (a *AggregateResult) Len() int {
	return a.length
}

// Row computes the reduction at checkpoint index i. Items is taken from the
// first trial; all trials share the schedule.
func (a *AggregateResult) Row(i int) Row {
	if i < 0 || i >= a.length {
		panic("aggregate row index out of range")
	}
	errs := make([]float64, len(a.Trials))
	for j, t := range a.Trials {
		errs[j] = t.Checkpoints[i].Err
	}
	return Row{
		Items: a.Trials[0].Checkpoints[i].Items,
		Mean:  stat.Mean(errs, nil),
		Min:   floats.Min(errs),
		Max:   floats.Max(errs),
	}
}

// Rows yields every row in checkpoint order. The sequence can be ranged over
// any number of times.
func (a *AggregateResult) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := 0; i < a.length; i++ {
			if !yield(a.Row(i)) {
				return
			}
		}
	}
}
