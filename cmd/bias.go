package cmd

import (
	"os"
	"os/signal"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"HLL-EVAL/bias"
	"HLL-EVAL/configuration"
	"HLL-EVAL/types"
)

func biasCmd() *cobra.Command {
	defaults := configuration.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:   "bias",
		Short: "Write the mean signed error at small cardinalities as JSON",
		Long: `Fills every estimator up to maxCardinality (default 5 * 2^precision) in many
independent runs and writes the mean estimate and bias at each sampled
cardinality to <outputDir>/<estimator>-p<precision>-bias.json.`,
		Args: cobra.NoArgs,
		RunE: runBias,
	}
	cmd.Flags().Int("runs", defaults.Bias.Runs, "independent fills averaged per sample")
	cmd.Flags().Uint64("maxCardinality", defaults.Bias.MaxCardinality, "largest sampled cardinality, 0 for 5 * 2^precision")
	cmd.Flags().Uint64("seed", defaults.Bias.Seed, "seed for the sample schedule")
	bindFlags("bias.", cmd.Flags(), "runs", "maxCardinality", "seed")
	return cmd
}

func runBias(cmd *cobra.Command, _ []string) error {
	specs, err := types.Select(config.Estimators)
	if err != nil {
		return err
	}
	opts := bias.Options{
		Runs:           config.Bias.Runs,
		MaxCardinality: config.Bias.MaxCardinality,
		Seed:           config.Bias.Seed,
		Parallelism:    config.Accuracy.Parallelism,
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runs, failed := 0, 0
	for _, spec := range specs {
		for _, p := range config.PrecisionValues() {
			runs++
			logger := log.WithFields(log.Fields{"estimator": spec.Name, "precision": p})
			opts.Precision = p
			points, err := bias.Compute(ctx, spec.New, opts)
			if err == nil {
				var path string
				path, err = bias.WriteFile(config.Accuracy.OutputDir, spec.Name, p, points)
				if err == nil {
					logger.Infof("%d bias points written to %s", len(points), path)
					continue
				}
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WithError(err).Error("bias run failed")
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d bias runs failed", failed, runs)
	}
	return nil
}
