// Package benchmark measures estimator throughput under contention: many
// workers insert into one shared instance, then many workers query it.
package benchmark

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"HLL-EVAL/general"
	"HLL-EVAL/metrics"
)

var (
	ErrInvalidWorkers = errors.New("invalid number of workers, must be at least 1")
	ErrWorkerPanic    = errors.New("worker panicked")
)

type PerfOptions struct {
	// Workers defaults to GOMAXPROCS when zero.
	Workers   int
	InsertOps uint64
	QueryOps  uint64
	Seed      uint64
}

type PhaseResult struct {
	Ops     uint64
	Elapsed time.Duration
	PerOp   time.Duration
}

func newPhaseResult(ops uint64, elapsed time.Duration) PhaseResult {
	r := PhaseResult{Ops: ops, Elapsed: elapsed}
	if ops > 0 {
		r.PerOp = elapsed / time.Duration(ops)
	}
	return r
}

type PerfResult struct {
	Estimator     string
	Workers       int
	Insert        PhaseResult
	Query         PhaseResult
	FinalEstimate float64
}

func (r *PerfResult) String() string {
	return fmt.Sprintf("%s workers=%d insert=%s/op (%d ops in %s) query=%s/op (%d ops in %s) estimate=%.0f",
		r.Estimator, r.Workers,
		r.Insert.PerOp, r.Insert.Ops, r.Insert.Elapsed,
		r.Query.PerOp, r.Query.Ops, r.Query.Elapsed,
		r.FinalEstimate)
}

// Perf builds one estimator and shares it between opts.Workers goroutines.
// All inserts finish before the first query starts. The estimator must be
// safe for concurrent use.
func Perf(ctx context.Context, factory general.Factory, precision uint8, opts PerfOptions) (*PerfResult, error) {
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		return nil, ErrInvalidWorkers
	}
	instance, err := factory(precision)
	if err != nil {
		return nil, errors.Wrapf(err, "constructing estimator at precision %d", precision)
	}
	res := &PerfResult{Estimator: instance.Name(), Workers: workers}
	logger := log.WithFields(log.Fields{"estimator": res.Estimator, "workers": workers})

	elapsed, err := runPhase(ctx, workers, opts.InsertOps, func(w int, ops uint64) {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(w)))
		for i := uint64(0); i < ops; i++ {
			instance.Insert(rng.Uint64())
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "insert phase")
	}
	res.Insert = newPhaseResult(opts.InsertOps, elapsed)
	metrics.RecordPhase(res.Estimator, "insert", workers, res.Insert.Ops, res.Insert.PerOp)
	logger.Debugf("insert phase took %s (%s/op)", res.Insert.Elapsed, res.Insert.PerOp)

	elapsed, err = runPhase(ctx, workers, opts.QueryOps, func(_ int, ops uint64) {
		for i := uint64(0); i < ops; i++ {
			_ = instance.Estimate()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "query phase")
	}
	res.Query = newPhaseResult(opts.QueryOps, elapsed)
	metrics.RecordPhase(res.Estimator, "query", workers, res.Query.Ops, res.Query.PerOp)
	logger.Debugf("query phase took %s (%s/op)", res.Query.Elapsed, res.Query.PerOp)

	res.FinalEstimate = instance.Estimate()
	return res, nil
}

// runPhase splits total ops over workers and joins them all. Workers run to
// completion once started; ctx is only checked before the phase begins.
func runPhase(ctx context.Context, workers int, total uint64, work func(w int, ops uint64)) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opsPerWorker := total / uint64(workers)
	extraOps := total % uint64(workers)

	var g errgroup.Group
	start := time.Now()
	for w := 0; w < workers; w++ {
		workerOps := opsPerWorker
		if uint64(w) < extraOps {
			workerOps++
		}
		if workerOps == 0 {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Wrapf(ErrWorkerPanic, "worker %d: %v", w, r)
				}
			}()
			work(w, workerOps)
			return nil
		})
	}
	err := g.Wait()
	return time.Since(start), err
}

// PowerSeries returns round(base^k) for k in [skip, skip+take), dropping
// repeats so the sizes strictly increase.
func PowerSeries(base float64, skip, take int) []uint64 {
	out := make([]uint64, 0, take)
	for k := skip; k < skip+take; k++ {
		v := uint64(math.Round(math.Pow(base, float64(k))))
		if len(out) > 0 && out[len(out)-1] >= v {
			continue
		}
		out = append(out, v)
	}
	return out
}
