// Package simulation measures estimator error against the true distinct
// count. RunTrial feeds one fresh estimator a run of distinct keys and samples
// its relative error at checkpoints; Aggregate runs many independent trials in
// parallel and reduces them to a mean/min/max error curve.
package simulation

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"HLL-EVAL/checkpoint"
	"HLL-EVAL/general"
	"HLL-EVAL/metrics"
)

// DefaultDivergenceThreshold stops a trial once the estimate is off by three
// orders of magnitude.
const DefaultDivergenceThreshold = 1000.0

// ctx is polled once per this many inserts.
const cancelCheckMask = 1<<16 - 1

var ErrInvalidMaxSize = errors.New("invalid max size, must be at least 1")

// Checkpoint is the relative error observed right after Items distinct keys.
type Checkpoint struct {
	Items uint64
	Err   float64
}

// TrialResult holds the checkpoints of one trial in increasing Items order.
// It is shorter than the full schedule when the trial diverged.
type TrialResult struct {
	Estimator   string
	Checkpoints []Checkpoint
	Diverged    bool
}

func (t TrialResult) Len() int {
	return len(t.Checkpoints)
}

type TrialOptions struct {
	MaxSize   uint64
	Step      checkpoint.Step
	Precision uint8
	// Offset is added (wrapping) to every key so independent trials draw
	// from decorrelated ranges of the key space.
	Offset uint64
	// DivergenceThreshold ends the trial once a recorded relative error
	// exceeds it. Zero selects DefaultDivergenceThreshold.
	DivergenceThreshold float64
}

func (o TrialOptions) Validate() error {
	if o.MaxSize < 1 {
		return ErrInvalidMaxSize
	}
	return o.Step.Validate()
}

func (o TrialOptions) threshold() float64 {
	if o.DivergenceThreshold <= 0 {
		return DefaultDivergenceThreshold
	}
	return o.DivergenceThreshold
}

// RunTrial inserts keys 1+Offset .. MaxSize+Offset into a fresh estimator
// and records |estimate - n| / n at every checkpoint n. A construction error
// is returned as-is; the caller must not retry it.
func RunTrial(ctx context.Context, factory general.Factory, opts TrialOptions) (TrialResult, error) {
	if err := opts.Validate(); err != nil {
		return TrialResult{}, err
	}
	c, err := factory(opts.Precision)
	if err != nil {
		return TrialResult{}, errors.Wrapf(err, "constructing estimator at precision %d", opts.Precision)
	}

	start := time.Now()
	res := TrialResult{
		Estimator:   c.Name(),
		Checkpoints: make([]Checkpoint, 0, opts.Step.Capacity(opts.MaxSize)),
	}
	threshold := opts.threshold()

	for x := uint64(1); x <= opts.MaxSize; x++ {
		c.Insert(x + opts.Offset)

		if opts.Step.ShouldRecord(x) {
			real := float64(x)
			relErr := math.Abs(c.Estimate()-real) / real
			res.Checkpoints = append(res.Checkpoints, Checkpoint{Items: x, Err: relErr})
			if relErr > threshold {
				res.Diverged = true
				break
			}
		}
		if x&cancelCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if x == math.MaxUint64 {
			break
		}
	}

	metrics.RecordTrial(res.Estimator, len(res.Checkpoints), res.Diverged, time.Since(start))
	return res, nil
}
