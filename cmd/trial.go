package cmd

import (
	"github.com/spf13/cobra"

	"HLL-EVAL/report"
	"HLL-EVAL/simulation"
	"HLL-EVAL/types"
)

func trialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial estimator",
		Short: "Run one trial and print its items,error checkpoints",
		Long: `Runs a single trial of the named estimator at the first configured precision,
using the accuracy settings, and prints every recorded checkpoint to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: runTrial,
	}
	cmd.Flags().Uint64("offset", 0, "added to every key before insertion")
	return cmd
}

func runTrial(cmd *cobra.Command, args []string) error {
	spec, err := types.Lookup(args[0])
	if err != nil {
		return err
	}
	offset, err := cmd.Flags().GetUint64("offset")
	if err != nil {
		return err
	}
	opts, err := config.AggregateOptions(config.PrecisionValues()[0])
	if err != nil {
		return err
	}
	opts.Trial.Offset = offset

	res, err := simulation.RunTrial(cmd.Context(), spec.New, opts.Trial)
	if err != nil {
		return err
	}
	if res.Diverged {
		cmd.PrintErrf("%s diverged after %d items\n", res.Estimator, res.Checkpoints[res.Len()-1].Items)
	}
	return report.WriteTrial(cmd.OutOrStdout(), res)
}
