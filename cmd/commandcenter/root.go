package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "commandcenter",
		Short:         "Live task board for the agent mesh",
		Long:          "Consumes the agent mesh event stream and serves a reconciled task board and worker health view.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config/config.yaml when present)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newReplayCmd())
	return root
}

// resolveConfigPath falls back to the repo-relative default config when no
// path is given, and to defaults plus environment when that is missing too.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	for _, p := range []string{defaultConfigPath, "../" + defaultConfigPath} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
