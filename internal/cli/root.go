package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "harbormaster",
		Short: "Single-host deployment manager for git-backed compose projects",
		Long: `harbormaster manages the lifecycle of containerized projects on a single
host: it clones their git repositories, builds and deploys them through
docker compose (falling back to the legacy docker-compose binary), resolves
host port conflicts across projects, and tracks state in a local registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	return rootCmd
}
