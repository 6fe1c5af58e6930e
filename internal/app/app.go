// Package app wires the application components together.
package app

import (
	"context"
	"fmt"

	"harbormaster/internal/cli"
	"harbormaster/internal/config"
	"harbormaster/internal/container"
	"harbormaster/internal/git"
	"harbormaster/internal/logger"
	"harbormaster/internal/operations"
	"harbormaster/internal/registry"
)

// App represents the main application
type App struct {
	Config     *config.GlobalConfig
	Registry   *registry.Registry
	Git        *git.Client
	Operations *operations.ProjectOperations
	CLI        *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext initializes all components and dispatches to the CLI.
// The server command blocks inside the CLI until shutdown.
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.Config = cfg
	logger.SetLevel(cfg.Log.Level)

	reg := registry.New(cfg.Storage.RegistryPath)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	a.Registry = reg

	runner := container.NewCommandRunner(nil)
	invoker := container.NewComposeRunner(runner, cfg.Tools.PrimaryCompose, cfg.Tools.LegacyCompose)
	docker := container.NewDockerClient(runner, cfg.Tools.Docker)
	a.Git = git.New()

	a.Operations = operations.New(cfg, reg, a.Git, invoker, docker, runner)
	a.CLI = cli.New(cfg, a.Operations)

	return a.CLI.Run(ctx, args)
}
