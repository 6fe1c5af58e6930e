package operations

import (
	"context"
	"testing"

	"harbormaster/internal/container"
	"harbormaster/internal/errors"
	"harbormaster/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectHealthNoContainers(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("")

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthNoContainers, report.Overall)
	assert.Empty(t, report.Containers)
}

func TestGetProjectHealthHealthy(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\nc2\n")
	env.docker.inspect["c1"] = &container.InspectState{ID: "c1", Name: "demo-web-1", Status: "running", Health: "healthy"}
	env.docker.inspect["c2"] = &container.InspectState{ID: "c2", Name: "demo-db-1", Status: "running"}

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthHealthy, report.Overall)
	assert.Len(t, report.Containers, 2)
	assert.Empty(t, report.Issues)
}

func TestGetProjectHealthUnhealthyOnStoppedContainer(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")
	env.docker.inspect["c1"] = &container.InspectState{ID: "c1", Name: "demo-web-1", Status: "exited"}

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthUnhealthy, report.Overall)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "demo-web-1")
}

func TestGetProjectHealthUnhealthyOnFailingHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")
	env.docker.inspect["c1"] = &container.InspectState{ID: "c1", Name: "demo-web-1", Status: "running", Health: "unhealthy"}

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthUnhealthy, report.Overall)
}

func TestGetProjectHealthErrorOnInspectFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\nc2\n")
	env.docker.inspectErr["c1"] = assert.AnError
	env.docker.inspect["c2"] = &container.InspectState{ID: "c2", Name: "demo-db-1", Status: "running"}

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthError, report.Overall)
	assert.NotEmpty(t, report.Issues)
}

func TestGetProjectHealthErrorOnListingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.invoker.errs["ps"] = errors.ToolFailed("docker compose", "ps", "daemon unreachable", nil)

	report, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthError, report.Overall)
}

func TestGetProjectHealthDoesNotMutateStatus(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("")

	_, err := env.ops.GetProjectHealth(context.Background(), "demo")
	require.NoError(t, err)

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfigured, project.Status)
	assert.Empty(t, project.HealthChecks)
}

func TestUpdateProjectHealthRecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("")

	report, err := env.ops.UpdateProjectHealth(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.HealthNoContainers, report.Overall)

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	require.Len(t, project.HealthChecks, 1)
	assert.Equal(t, types.HealthNoContainers, project.HealthChecks[0].Overall)
	assert.NotEmpty(t, project.HealthChecks[0].ID)
}

func TestGetProjectLogs(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\nc2\n")

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	env.docker.logs["c1"] = "hello from c1"
	env.docker.logsErr["c2"] = assert.AnError

	entries, err := env.ops.GetProjectLogs(context.Background(), "demo", 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "hello from c1", entries[0].Logs)
	assert.Empty(t, entries[0].Error)

	// The failing container does not abort the batch
	assert.NotEmpty(t, entries[1].Error)
	assert.Empty(t, entries[1].Logs)
}

func TestGetProjectLogsUnknownProject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ops.GetProjectLogs(context.Background(), "missing", 10)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProjectNotFound))
}

func TestGetProjectLogsListsLiveContainers(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)

	// Containers are up but were never deployed through this process, so
	// the tracked snapshot is empty. Logs must come from the live listing.
	env.setPSOutput("live1\n")
	env.docker.logs["live1"] = "fresh output"

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	require.Empty(t, project.Containers)

	entries, err := env.ops.GetProjectLogs(context.Background(), "demo", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live1", entries[0].ContainerID)
	assert.Equal(t, "fresh output", entries[0].Logs)
}

func TestInspectContainerRejectsBadID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ops.InspectContainer(context.Background(), "bad id")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrValidationFailed))
}

func TestListAllContainers(t *testing.T) {
	env := newTestEnv(t)
	env.docker.listAll = []container.ContainerSummary{
		{ID: "abc123", Name: "demo-web-1", Image: "nginx:alpine", Status: "Up 2 minutes"},
	}

	containers, err := env.ops.ListAllContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "demo-web-1", containers[0].Name)
}
