// Package cli wires the cobra command tree over the project operations.
package cli

import (
	"context"

	"harbormaster/internal/cli/commands"
	"harbormaster/internal/config"
	"harbormaster/internal/operations"

	"github.com/spf13/cobra"
)

// Manager handles CLI operations
type Manager struct {
	config  *config.GlobalConfig
	ops     *operations.ProjectOperations
	rootCmd *cobra.Command
}

// New creates a new CLI manager
func New(cfg *config.GlobalConfig, ops *operations.ProjectOperations) *Manager {
	m := &Manager{
		config:  cfg,
		ops:     ops,
		rootCmd: createRootCommand(),
	}
	m.setupCommands()
	return m
}

// setupCommands attaches all subcommands to the root
func (m *Manager) setupCommands() {
	projectCmd := &cobra.Command{
		Use:     "project",
		Short:   "Manage projects",
		Aliases: []string{"proj"},
	}
	projectCmd.AddCommand(commands.ProjectCommands(m.ops)...)
	m.rootCmd.AddCommand(projectCmd)

	m.rootCmd.AddCommand(commands.ServerCommand(m.config, m.ops))
}

// Run executes the CLI with the given arguments
func (m *Manager) Run(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}
