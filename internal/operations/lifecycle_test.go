package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"harbormaster/internal/container"
	"harbormaster/internal/errors"
	"harbormaster/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProjectSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)

	before, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	project, err := env.ops.BuildProject(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, types.StatusBuilt, project.Status)
	assert.True(t, project.LastUpdated.After(before.LastUpdated))
	require.Len(t, project.BuildHistory, 1)
	assert.True(t, project.BuildHistory[0].Success)
	assert.Equal(t, "docker compose", project.BuildHistory[0].Tool)
	assert.NotEmpty(t, project.BuildHistory[0].ID)

	assert.Contains(t, env.invoker.verbs(), "build")
}

func TestBuildProjectMissingEnvVarAborts(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles["docker-compose.yml"] = "services:\n  web:\n    image: app:${HM_TEST_REQUIRED_TAG}\n"
	env.addDemo(t)

	_, err := env.ops.BuildProject(context.Background(), "demo")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingEnvVars))

	// No orchestration tool was invoked
	assert.NotContains(t, env.invoker.verbs(), "build")

	project, getErr := env.ops.GetProject("demo")
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusError, project.Status)
	require.Len(t, project.BuildHistory, 1)
	assert.False(t, project.BuildHistory[0].Success)
	assert.Contains(t, project.BuildHistory[0].Error, "HM_TEST_REQUIRED_TAG")
}

func TestBuildProjectEnvVarSatisfiedByProject(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles["docker-compose.yml"] = "services:\n  web:\n    image: app:${HM_TEST_REQUIRED_TAG}\n"
	env.addDemo(t)

	_, err := env.ops.UpdateEnvironmentVars(context.Background(), "demo", map[string]string{"HM_TEST_REQUIRED_TAG": "v1"})
	require.NoError(t, err)

	project, err := env.ops.BuildProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusBuilt, project.Status)
}

func TestBuildProjectToolFailureSetsError(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.invoker.errs["build"] = errors.ToolFailed("docker compose", "build", "no space left on device", nil)

	_, err := env.ops.BuildProject(context.Background(), "demo")
	require.Error(t, err)

	project, getErr := env.ops.GetProject("demo")
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusError, project.Status)
	require.Len(t, project.BuildHistory, 1)
	assert.False(t, project.BuildHistory[0].Success)
	assert.Contains(t, project.BuildHistory[0].Error, "no space left on device")
}

func TestBuildProjectNeverLeftInBuilding(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.invoker.errs["build"] = errors.ToolFailed("docker compose", "build", "boom", nil)

	_, _ = env.ops.BuildProject(context.Background(), "demo")

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	assert.NotEqual(t, types.StatusBuilding, project.Status)
}

func TestDeployProjectSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\nc2\n")

	project, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, types.StatusRunning, project.Status)
	assert.Equal(t, []string{"c1", "c2"}, project.Containers)

	require.Len(t, project.DeployHistory, 1)
	record := project.DeployHistory[0]
	assert.Equal(t, "deploy", record.Action)
	assert.True(t, record.Success)
	assert.Equal(t, []string{"c1", "c2"}, record.Containers)
	assert.Empty(t, record.Warnings)

	// up ran with a forced rebuild
	var upCall *invocation
	for i := range env.invoker.calls {
		if env.invoker.calls[i].verb == "up" {
			upCall = &env.invoker.calls[i]
		}
	}
	require.NotNil(t, upCall)
	assert.Equal(t, []string{"-d", "--build"}, upCall.extra)
	assert.Equal(t, "demo", upCall.opts.ProjectName)
}

func TestDeployProjectMissingEnvVarNeverInvokesTool(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles["docker-compose.yml"] = "services:\n  web:\n    environment:\n      SECRET: ${HM_TEST_REQUIRED_SECRET}\n"
	env.addDemo(t)

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingEnvVars))
	assert.NotContains(t, env.invoker.verbs(), "up")

	project, getErr := env.ops.GetProject("demo")
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusError, project.Status)
}

func TestDeployProjectRequiresComposeFile(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles = map[string]string{"README.md": "no compose here\n"}
	env.addDemo(t)

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrComposeFileNotFound))
	assert.Empty(t, env.invoker.verbs())
}

func TestDeployProjectRunsSeedHook(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles["scripts/seed.sh"] = "#!/bin/sh\necho seeding\n"
	env.addDemo(t)
	env.setPSOutput("c1\n")

	_, err := env.ops.UpdateEnvironmentVars(context.Background(), "demo", map[string]string{"APP_ENV": "test"})
	require.NoError(t, err)

	project, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, project.Status)

	require.Len(t, env.runner.specs, 1)
	spec := env.runner.specs[0]
	assert.Equal(t, "bash", spec.Name)
	assert.Contains(t, spec.Args[0], filepath.Join("scripts", "seed.sh"))
	assert.Equal(t, "test", spec.Env["APP_ENV"])
}

func TestDeployProjectSeedHookFailureOnlyWarns(t *testing.T) {
	env := newTestEnv(t)
	env.git.cloneFiles["scripts/seed.sh"] = "#!/bin/sh\nexit 1\n"
	env.addDemo(t)
	env.setPSOutput("c1\n")
	env.runner.result = &container.RunResult{Stderr: "seed blew up", ExitCode: 1}

	project, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, types.StatusRunning, project.Status)
	require.Len(t, project.DeployHistory, 1)
	require.Len(t, project.DeployHistory[0].Warnings, 1)
	assert.Contains(t, project.DeployHistory[0].Warnings[0], "seed blew up")
}

func TestStopProjectSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	project, err := env.ops.StopProject(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, types.StatusStopped, project.Status)
	assert.Empty(t, project.Containers)

	require.Len(t, project.DeployHistory, 2)
	assert.Equal(t, "stop", project.DeployHistory[1].Action)
	assert.True(t, project.DeployHistory[1].Success)
}

func TestStopProjectToolFailureSetsError(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.invoker.errs["down"] = errors.ToolFailed("docker compose", "down", "cannot stop", nil)

	_, err := env.ops.StopProject(context.Background(), "demo")
	require.Error(t, err)

	project, getErr := env.ops.GetProject("demo")
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusError, project.Status)
}

func TestErrorStateIsRecoverable(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)

	env.invoker.errs["build"] = errors.ToolFailed("docker compose", "build", "boom", nil)
	_, _ = env.ops.BuildProject(context.Background(), "demo")

	delete(env.invoker.errs, "build")
	project, err := env.ops.BuildProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusBuilt, project.Status)
	assert.Len(t, project.BuildHistory, 2)
}

func TestHistoryIsAppendOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")

	_, err := env.ops.BuildProject(context.Background(), "demo")
	require.NoError(t, err)
	_, err = env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)
	_, err = env.ops.StopProject(context.Background(), "demo")
	require.NoError(t, err)

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	require.Len(t, project.BuildHistory, 1)
	require.Len(t, project.DeployHistory, 2)

	firstDeploy := project.DeployHistory[0]
	_, err = env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	project, err = env.ops.GetProject("demo")
	require.NoError(t, err)
	require.Len(t, project.DeployHistory, 3)
	assert.Equal(t, firstDeploy.ID, project.DeployHistory[0].ID)
}

func TestRemoveProjectCleanTeardown(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	warnings, err := env.ops.RemoveProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.False(t, env.reg.Exists("demo"))
	assert.Equal(t, []string{"c1"}, env.docker.removedIDs)

	_, statErr := os.Stat(filepath.Join(env.cfg.Storage.ProjectsDir, "demo"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemoveProjectForwardProgressWithMissingCheckout(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)

	// The checkout vanished out from under us
	require.NoError(t, os.RemoveAll(filepath.Join(env.cfg.Storage.ProjectsDir, "demo")))

	warnings, err := env.ops.RemoveProject(context.Background(), "demo")
	require.NoError(t, err)

	// Compose down could not resolve a file, but removal finished anyway
	assert.NotEmpty(t, warnings)
	assert.False(t, env.reg.Exists("demo"))
}

func TestRemoveProjectContainerRemovalFailureOnlyWarns(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\nc2\n")

	_, err := env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)

	env.docker.removeErr["c1"] = assert.AnError

	warnings, err := env.ops.RemoveProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	assert.False(t, env.reg.Exists("demo"))
	// c2 was still removed despite c1 failing
	assert.Contains(t, env.docker.removedIDs, "c2")
}

// Lifecycle walkthrough: add, build, deploy, stop.
func TestLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	env.addDemo(t)
	env.setPSOutput("c1\n")

	project, err := env.ops.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfigured, project.Status)

	project, err = env.ops.BuildProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusBuilt, project.Status)

	project, err = env.ops.DeployProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, project.Status)
	assert.NotEmpty(t, project.Containers)

	project, err = env.ops.StopProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusStopped, project.Status)
	assert.Empty(t, project.Containers)
}
