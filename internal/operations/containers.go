package operations

import (
	"context"

	"harbormaster/internal/container"
	"harbormaster/internal/validation"
)

// ListAllContainers returns every container the runtime knows about,
// including ones no registered project owns. Read-only.
func (po *ProjectOperations) ListAllContainers(ctx context.Context) ([]container.ContainerSummary, error) {
	return po.docker.ListAll(ctx)
}

// InspectContainer returns the runtime state of one container by id or name.
func (po *ProjectOperations) InspectContainer(ctx context.Context, id string) (*container.InspectState, error) {
	if err := validation.ContainerID(id); err != nil {
		return nil, err
	}
	return po.docker.Inspect(ctx, id)
}
