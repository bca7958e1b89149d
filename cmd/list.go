package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"HLL-EVAL/types"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered estimators",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range types.All() {
				mode := "locked"
				if s.Concurrent {
					mode = "concurrent"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.Name, mode)
			}
		},
	}
}
