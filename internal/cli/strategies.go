package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/strategies"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategies",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range strategies.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
