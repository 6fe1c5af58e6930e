package operations

import (
	"context"

	"harbormaster/internal/container"
	"harbormaster/internal/git"
)

// GitManager defines the version-control operations the orchestrator needs
type GitManager interface {
	IsRepository(path string) bool
	Clone(ctx context.Context, repoURL, path, branch string) error
	Pull(ctx context.Context, path string) (*git.PullSummary, error)
	CurrentBranch(path string) (string, error)
}

// ComposeInvoker runs compose verbs for a project, handling the fallback to
// the legacy binary internally
type ComposeInvoker interface {
	Run(ctx context.Context, opts container.ComposeOptions, verb string, extra ...string) (*container.ComposeResult, error)
}

// ContainerClient defines the direct container-runtime queries the
// orchestrator needs outside of compose
type ContainerClient interface {
	Inspect(ctx context.Context, containerID string) (*container.InspectState, error)
	ListAll(ctx context.Context) ([]container.ContainerSummary, error)
	BoundHostPorts(ctx context.Context) (map[int][]string, error)
	ForceRemove(ctx context.Context, containerID string) error
	Logs(ctx context.Context, containerID string, tail int) (string, error)
}
