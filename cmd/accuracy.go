package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"HLL-EVAL/configuration"
	"HLL-EVAL/report"
	"HLL-EVAL/simulation"
	"HLL-EVAL/types"
)

func accuracyCmd() *cobra.Command {
	defaults := configuration.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Write mean/min/max error curves for every estimator and precision",
		Long: `Runs a batch of independent trials per (estimator, precision) pair and writes
one headerless items,mean,min,max CSV per pair to the output directory.
A failed pair is logged and skipped; the command exits non-zero if any failed.`,
		Args: cobra.NoArgs,
		RunE: runAccuracy,
	}
	cmd.Flags().Uint64("maxSize", defaults.Accuracy.MaxSize, "distinct keys inserted per trial")
	cmd.Flags().String("step", defaults.Accuracy.Step, "checkpoint schedule, linear:<stride> or pow2:<exponents per octave>")
	cmd.Flags().Int("trials", defaults.Accuracy.Trials, "independent trials per estimator and precision")
	cmd.Flags().Int("parallelism", defaults.Accuracy.Parallelism, "trials run at once, 0 for one per CPU")
	cmd.Flags().Float64("divergenceThreshold", defaults.Accuracy.DivergenceThreshold, "relative error that ends a trial early")
	cmd.Flags().String("outputDir", defaults.Accuracy.OutputDir, "directory receiving the CSV files")
	bindFlags("accuracy.", cmd.Flags(), "maxSize", "step", "trials", "parallelism", "divergenceThreshold", "outputDir")
	return cmd
}

func runAccuracy(cmd *cobra.Command, _ []string) error {
	specs, err := types.Select(config.Estimators)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runs, failed := 0, 0
	for _, spec := range specs {
		for _, p := range config.PrecisionValues() {
			runs++
			logger := log.WithFields(log.Fields{"estimator": spec.Name, "precision": p})
			start := time.Now()

			opts, err := config.AggregateOptions(p)
			if err != nil {
				return err
			}
			agg, err := simulation.Aggregate(ctx, spec.New, opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WithError(err).Error("accuracy run failed")
				failed++
				continue
			}
			path, err := report.WriteFile(config.Accuracy.OutputDir, agg.Estimator, p, agg.Rows())
			if err != nil {
				logger.WithError(err).Error("writing results failed")
				failed++
				continue
			}
			logger.Infof("complete in %s, %d rows written to %s", time.Since(start).Round(time.Millisecond), agg.Len(), path)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d accuracy runs failed", failed, runs)
	}
	return nil
}
