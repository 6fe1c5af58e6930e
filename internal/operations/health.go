package operations

import (
	"context"
	"fmt"
	"time"

	"harbormaster/internal/compose"
	"harbormaster/internal/constants"
	"harbormaster/internal/logger"
	"harbormaster/internal/types"
)

// GetProjectHealth inspects a project's containers and classifies overall
// health. It never mutates the project; UpdateProjectHealth records the
// result.
func (po *ProjectOperations) GetProjectHealth(ctx context.Context, name string) (*types.HealthReport, error) {
	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
	if err != nil {
		return nil, err
	}

	report := &types.HealthReport{
		Overall:   types.HealthHealthy,
		CheckedAt: time.Now(),
	}

	ids, err := po.listContainers(ctx, po.composeOptions(project, composeFile))
	if err != nil {
		report.Overall = types.HealthError
		report.Issues = append(report.Issues, "could not list containers: "+err.Error())
		return report, nil
	}
	if len(ids) == 0 {
		report.Overall = types.HealthNoContainers
		return report, nil
	}

	for _, id := range ids {
		state, err := po.docker.Inspect(ctx, id)
		if err != nil {
			report.Overall = types.HealthError
			report.Issues = append(report.Issues, fmt.Sprintf("could not inspect container %s: %v", id, err))
			continue
		}
		report.Containers = append(report.Containers, types.ContainerHealth{
			ID:     state.ID,
			Name:   state.Name,
			Status: state.Status,
			Health: state.Health,
		})
		if report.Overall == types.HealthError {
			continue
		}
		if state.Status != "running" {
			report.Overall = types.HealthUnhealthy
			report.Issues = append(report.Issues, fmt.Sprintf("container %s is %s", state.Name, state.Status))
		} else if state.Health == "unhealthy" {
			report.Overall = types.HealthUnhealthy
			report.Issues = append(report.Issues, fmt.Sprintf("container %s is unhealthy", state.Name))
		}
	}
	return report, nil
}

// UpdateProjectHealth runs a health check and appends the result to the
// project's health history.
func (po *ProjectOperations) UpdateProjectHealth(ctx context.Context, name string) (*types.HealthReport, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	report, err := po.GetProjectHealth(ctx, name)
	if err != nil {
		return nil, err
	}

	if _, err := po.registry.Update(name, func(p *types.Project) error {
		p.HealthChecks = append(p.HealthChecks, types.HealthRecord{
			ID:        newRecordID(),
			Timestamp: report.CheckedAt,
			Overall:   report.Overall,
			Issues:    report.Issues,
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// GetProjectLogs lists the project's current containers and fetches a
// bounded log tail for each. The listing is live, not the deploy-time
// snapshot, so containers recreated out of band are still covered.
// Per-container failures are recorded in the entry, not propagated.
func (po *ProjectOperations) GetProjectLogs(ctx context.Context, name string, tail int) ([]types.ContainerLogs, error) {
	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
	if err != nil {
		return nil, err
	}

	ids, err := po.listContainers(ctx, po.composeOptions(project, composeFile))
	if err != nil {
		return nil, err
	}

	if tail <= 0 {
		tail = constants.DefaultLogTailLines
	}
	if tail > constants.MaxLogTailLines {
		tail = constants.MaxLogTailLines
	}

	logs := make([]types.ContainerLogs, 0, len(ids))
	for _, id := range ids {
		entry := types.ContainerLogs{ContainerID: id}
		output, err := po.docker.Logs(ctx, id, tail)
		if err != nil {
			entry.Error = err.Error()
			logger.WithFields(logger.Fields{
				"project":   name,
				"container": id,
				"error":     err.Error(),
			}).Warn("Could not fetch container logs")
		} else {
			entry.Logs = output
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
