package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <cache-a> <cache-b>",
		Short: "Cross-check two cache files entry by entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Compare(args[0], args[1], cmd.OutOrStdout())
		},
	}
}
