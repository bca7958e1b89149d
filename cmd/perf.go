package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	benchmark "HLL-EVAL/benchmarking"
	"HLL-EVAL/configuration"
	"HLL-EVAL/general"
	"HLL-EVAL/types"
)

func perfCmd() *cobra.Command {
	defaults := configuration.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:   "perf",
		Short: "Measure insert and query latency on one shared estimator",
		Long: `For every estimator, precision and worker count, hammers one shared instance
with random inserts and then with estimate queries, and prints per-op latency.
Estimators that are not safe for concurrent use are wrapped in a mutex.`,
		Args: cobra.NoArgs,
		RunE: runPerf,
	}
	cmd.Flags().IntSlice("workers", defaults.Perf.Workers, "worker counts to measure")
	cmd.Flags().Uint64("insertOps", defaults.Perf.InsertOps, "total inserts per run, split across workers")
	cmd.Flags().Uint64("queryOps", defaults.Perf.QueryOps, "total estimate calls per run, split across workers")
	cmd.Flags().Uint64("seed", defaults.Perf.Seed, "seed for the per-worker key generators")
	bindFlags("perf.", cmd.Flags(), "workers", "insertOps", "queryOps", "seed")
	cmd.Flags().Bool("locked", false, "also measure every estimator behind a mutex")
	return cmd
}

func runPerf(cmd *cobra.Command, _ []string) error {
	specs, err := types.Select(config.Estimators)
	if err != nil {
		return err
	}
	locked, err := cmd.Flags().GetBool("locked")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	factories := make([]general.Factory, 0, len(specs)*2)
	for _, spec := range specs {
		factories = append(factories, spec.SharedFactory())
		if locked && spec.Concurrent {
			factories = append(factories, types.LockedFactory(spec.New))
		}
	}

	runs, failed := 0, 0
	for _, factory := range factories {
		for _, p := range config.PrecisionValues() {
			for _, workers := range config.Perf.Workers {
				runs++
				res, err := benchmark.Perf(ctx, factory, p, benchmark.PerfOptions{
					Workers:   workers,
					InsertOps: config.Perf.InsertOps,
					QueryOps:  config.Perf.QueryOps,
					Seed:      config.Perf.Seed,
				})
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.WithFields(log.Fields{"precision": p, "workers": workers}).WithError(err).Error("perf run failed")
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "p=%d %s\n", p, res)
						}
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d perf runs failed", failed, runs)
	}
	return nil
}
