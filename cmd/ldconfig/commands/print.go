package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print [cache-file]",
		Short: "Print the contents of a cache file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/etc/ld.so.cache"
			if len(args) == 1 {
				path = args[0]
			}
			if find, _ := cmd.Flags().GetString("find"); find != "" {
				return c.app.Find(path, find, cmd.OutOrStdout())
			}
			format, _ := cmd.Flags().GetString("format")
			return c.app.Print(path, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("format", "o", "text", "Output format: text or yaml")
	cmd.Flags().String("find", "", "Only print entries whose name contains the given string")
	return cmd
}
