package commands

import (
	"github.com/spf13/cobra"

	"github.com/lu-zero/ldconfig/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan configured directories and rebuild the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cachePath, _ := cmd.Flags().GetString("cache")
			root, _ := cmd.Flags().GetString("root")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return c.app.Build(cmd.Context(), app.BuildOptions{
				ConfigPath: configPath,
				CachePath:  cachePath,
				Root:       root,
				DryRun:     dryRun,
			})
		},
	}
	cmd.Flags().StringP("config", "f", "", "Use an alternative configuration file")
	cmd.Flags().StringP("cache", "C", "", "Use an alternative cache file destination")
	cmd.Flags().StringP("root", "r", "", "Prepend a root prefix to all paths (sysroot)")
	cmd.Flags().BoolP("dry-run", "N", false, "Build without writing the cache file")
	return cmd
}
