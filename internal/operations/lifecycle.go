package operations

import (
	"context"
	"os"
	"strings"
	"time"

	"harbormaster/internal/compose"
	"harbormaster/internal/constants"
	"harbormaster/internal/container"
	"harbormaster/internal/logger"
	"harbormaster/internal/types"
)

// BuildProject builds a project's images through the orchestration tool.
// The project passes through state building and ends in built or error; it
// is never left in building.
func (po *ProjectOperations) BuildProject(ctx context.Context, name string) (*types.Project, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if _, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusBuilding
		return nil
	}); err != nil {
		return nil, err
	}

	composeFile, resolveErr := compose.ResolveFile(project.Path, project.ComposeFile)
	if resolveErr == nil {
		if err := checkRequiredEnvVars(composeFile, project); err != nil {
			return po.failBuild(name, "", err)
		}
	} else {
		composeFile = ""
	}

	result, err := po.compose.Run(ctx, po.composeOptions(project, composeFile), "build")
	if err != nil {
		tool := ""
		if result != nil {
			tool = result.Tool
		}
		return po.failBuild(name, tool, err)
	}

	updated, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusBuilt
		p.BuildHistory = append(p.BuildHistory, types.BuildRecord{
			ID:        newRecordID(),
			Timestamp: time.Now(),
			Success:   true,
			Tool:      result.Tool,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"project": name,
		"tool":    result.Tool,
	}).Info("Project built")
	return updated, nil
}

// failBuild records a build failure and returns the original error.
func (po *ProjectOperations) failBuild(name, tool string, cause error) (*types.Project, error) {
	if _, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusError
		p.BuildHistory = append(p.BuildHistory, types.BuildRecord{
			ID:        newRecordID(),
			Timestamp: time.Now(),
			Success:   false,
			Tool:      tool,
			Error:     errorText(cause),
		})
		return nil
	}); err != nil {
		logger.WithFields(logger.Fields{
			"project": name,
			"error":   err.Error(),
		}).Error("Could not record build failure")
	}
	return nil, cause
}

// DeployProject deploys a project with a forced rebuild. A resolvable
// compose file and a complete required environment are prerequisites; no
// tool is invoked when either is missing. On success the tracked container
// list is replaced and the project enters state running. The post-deploy
// seed hook is best-effort and only adds a warning to the deploy record.
func (po *ProjectOperations) DeployProject(ctx context.Context, name string) (*types.Project, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
	if err != nil {
		return po.failDeploy(name, "deploy", "", err)
	}
	if err := checkRequiredEnvVars(composeFile, project); err != nil {
		return po.failDeploy(name, "deploy", "", err)
	}

	opts := po.composeOptions(project, composeFile)
	result, err := po.compose.Run(ctx, opts, "up", "-d", "--build")
	if err != nil {
		tool := ""
		if result != nil {
			tool = result.Tool
		}
		return po.failDeploy(name, "deploy", tool, err)
	}

	var warnings []string
	containers, err := po.listContainers(ctx, opts)
	if err != nil {
		warnings = append(warnings, "could not list containers: "+err.Error())
		logger.WithFields(logger.Fields{
			"project": name,
			"error":   err.Error(),
		}).Warn("Deployed but container listing failed")
	}

	if warning := po.runSeedHook(ctx, project); warning != "" {
		warnings = append(warnings, warning)
	}

	updated, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusRunning
		p.Containers = containers
		p.DeployHistory = append(p.DeployHistory, types.DeployRecord{
			ID:         newRecordID(),
			Timestamp:  time.Now(),
			Action:     "deploy",
			Success:    true,
			Tool:       result.Tool,
			Containers: containers,
			Warnings:   warnings,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"project":    name,
		"tool":       result.Tool,
		"containers": len(containers),
	}).Info("Project deployed")
	return updated, nil
}

// failDeploy records a deploy or stop failure and returns the original error.
func (po *ProjectOperations) failDeploy(name, action, tool string, cause error) (*types.Project, error) {
	if _, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusError
		p.DeployHistory = append(p.DeployHistory, types.DeployRecord{
			ID:        newRecordID(),
			Timestamp: time.Now(),
			Action:    action,
			Success:   false,
			Tool:      tool,
			Error:     errorText(cause),
		})
		return nil
	}); err != nil {
		logger.WithFields(logger.Fields{
			"project": name,
			"action":  action,
			"error":   err.Error(),
		}).Error("Could not record failure")
	}
	return nil, cause
}

// StopProject takes a project's containers down. On success the tracked
// container list is cleared and the project enters state stopped.
func (po *ProjectOperations) StopProject(ctx context.Context, name string) (*types.Project, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
	if err != nil {
		return po.failDeploy(name, "stop", "", err)
	}

	result, err := po.compose.Run(ctx, po.composeOptions(project, composeFile), "down")
	if err != nil {
		tool := ""
		if result != nil {
			tool = result.Tool
		}
		return po.failDeploy(name, "stop", tool, err)
	}

	updated, err := po.registry.Update(name, func(p *types.Project) error {
		p.Status = types.StatusStopped
		p.Containers = nil
		p.DeployHistory = append(p.DeployHistory, types.DeployRecord{
			ID:        newRecordID(),
			Timestamp: time.Now(),
			Action:    "stop",
			Success:   true,
			Tool:      result.Tool,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"project": name,
		"tool":    result.Tool,
	}).Info("Project stopped")
	return updated, nil
}

// RemoveProject tears a project down and deletes it. Runtime teardown,
// per-container removal, and checkout deletion are best-effort; only the
// registry deletion itself can fail the operation, so removal always makes
// forward progress.
func (po *ProjectOperations) RemoveProject(ctx context.Context, name string) ([]string, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	steps := []teardownStep{
		{
			name:      "compose down",
			onFailure: onFailureWarn,
			run: func(ctx context.Context) error {
				composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
				if err != nil {
					return err
				}
				_, err = po.compose.Run(ctx, po.composeOptions(project, composeFile), "down", "--remove-orphans")
				return err
			},
		},
		{
			name:      "remove containers",
			onFailure: onFailureWarn,
			run: func(ctx context.Context) error {
				var failed []string
				for _, id := range project.Containers {
					if err := po.docker.ForceRemove(ctx, id); err != nil {
						failed = append(failed, id)
						logger.WithFields(logger.Fields{
							"project":   name,
							"container": id,
							"error":     err.Error(),
						}).Warn("Could not remove container")
					}
				}
				if len(failed) > 0 {
					return &removalError{containers: failed}
				}
				return nil
			},
		},
		{
			name:      "delete checkout",
			onFailure: onFailureWarn,
			run: func(ctx context.Context) error {
				return os.RemoveAll(project.Path)
			},
		},
		{
			name:      "delete registry entry",
			onFailure: onFailureAbort,
			run: func(ctx context.Context) error {
				return po.registry.Delete(name)
			},
		},
	}

	warnings, err := runTeardown(ctx, name, steps)
	if err != nil {
		return warnings, err
	}
	logger.WithField("project", name).Info("Project removed")
	return warnings, nil
}

type removalError struct {
	containers []string
}

func (e *removalError) Error() string {
	return "could not remove containers " + strings.Join(e.containers, ", ")
}

// listContainers returns the container ids of a compose project.
func (po *ProjectOperations) listContainers(ctx context.Context, opts container.ComposeOptions) ([]string, error) {
	result, err := po.compose.Run(ctx, opts, "ps", "-q")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// runSeedHook runs scripts/seed.sh in the checkout when present. Returns a
// warning string on failure, empty otherwise.
func (po *ProjectOperations) runSeedHook(ctx context.Context, project *types.Project) string {
	script, ok := seedScript(project.Path, constants.SeedScriptPath)
	if !ok {
		return ""
	}
	logger.WithFields(logger.Fields{
		"project": project.Name,
		"script":  script,
	}).Info("Running seed hook")

	result, err := po.runner.Run(ctx, container.RunSpec{
		Name: "bash",
		Args: []string{script},
		Dir:  project.Path,
		Env:  project.EnvironmentVars,
	})
	if err == nil && result.ExitCode == 0 {
		return ""
	}
	detail := ""
	if result != nil {
		detail = strings.TrimSpace(result.Combined())
	}
	if err != nil && detail == "" {
		detail = err.Error()
	}
	logger.WithFields(logger.Fields{
		"project": project.Name,
		"output":  detail,
	}).Warn("Seed hook failed")
	return "seed hook failed: " + detail
}
