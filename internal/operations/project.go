// Package operations implements the project lifecycle orchestrator: every
// public operation a transport (CLI or HTTP) can invoke against a managed
// project. Operations on the same project are serialized through the
// registry's per-project locks; operations on different projects are
// independent.
package operations

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"harbormaster/internal/compose"
	"harbormaster/internal/config"
	"harbormaster/internal/container"
	"harbormaster/internal/errors"
	"harbormaster/internal/git"
	"harbormaster/internal/logger"
	"harbormaster/internal/ports"
	"harbormaster/internal/registry"
	"harbormaster/internal/types"
	"harbormaster/internal/validation"

	"github.com/google/uuid"
)

// ProjectOperations provides the shared backend functions for project
// lifecycle management, used by both the CLI and the HTTP server.
type ProjectOperations struct {
	cfg      *config.GlobalConfig
	registry *registry.Registry
	git      GitManager
	compose  ComposeInvoker
	docker   ContainerClient
	runner   container.Runner
	resolver *ports.Resolver
}

// New creates a ProjectOperations instance over the given collaborators.
func New(cfg *config.GlobalConfig, reg *registry.Registry, gitMgr GitManager, invoker ComposeInvoker, docker ContainerClient, runner container.Runner) *ProjectOperations {
	return &ProjectOperations{
		cfg:      cfg,
		registry: reg,
		git:      gitMgr,
		compose:  invoker,
		docker:   docker,
		runner:   runner,
		resolver: ports.New(reg, docker),
	}
}

// AddProjectRequest contains parameters for registering a project.
type AddProjectRequest struct {
	Name            string
	RepoURL         string
	Branch          string
	Dockerfile      string
	ComposeFile     string
	EnvironmentVars map[string]string
}

// AddProject clones the repository (or pulls an existing checkout), extracts
// the initial port snapshot, and registers the project in state configured.
// The project is not registered when the clone or pull fails.
func (po *ProjectOperations) AddProject(ctx context.Context, req AddProjectRequest) (*types.Project, error) {
	if err := validation.ProjectName(req.Name); err != nil {
		return nil, err
	}
	if err := validation.NonEmptyString("repo_url", req.RepoURL); err != nil {
		return nil, err
	}
	if po.registry.Exists(req.Name) {
		return nil, errors.ProjectExists(req.Name)
	}

	branch := req.Branch
	if branch == "" {
		branch = "main"
	}
	path := filepath.Join(po.cfg.Storage.ProjectsDir, req.Name)

	if po.git.IsRepository(path) {
		logger.WithFields(logger.Fields{
			"project": req.Name,
			"path":    path,
		}).Info("Reusing existing checkout")
		if _, err := po.git.Pull(ctx, path); err != nil {
			return nil, err
		}
	} else {
		logger.WithFields(logger.Fields{
			"project": req.Name,
			"url":     req.RepoURL,
			"branch":  branch,
		}).Info("Cloning repository")
		if err := po.git.Clone(ctx, req.RepoURL, path, branch); err != nil {
			return nil, err
		}
	}

	dockerfile := req.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	envVars := req.EnvironmentVars
	if envVars == nil {
		envVars = map[string]string{}
	}

	now := time.Now()
	project := &types.Project{
		Name:            req.Name,
		RepoURL:         req.RepoURL,
		Branch:          branch,
		Path:            path,
		Dockerfile:      dockerfile,
		ComposeFile:     req.ComposeFile,
		EnvironmentVars: envVars,
		Status:          types.StatusConfigured,
		CreatedAt:       now,
		LastUpdated:     now,
		AutoRestart:     false,
		ResourceLimits:  types.DefaultResourceLimits(),
	}
	project.Ports = po.portSnapshot(project)

	if err := po.registry.Create(project); err != nil {
		return nil, err
	}
	return project.Clone(), nil
}

// SyncProject pulls the latest changes for a project's checkout. When a
// compose file resolves the project is stopped first so the pull does not
// race live containers; a stop failure is logged, not fatal. The returned
// summary reports whether the pull changed anything.
func (po *ProjectOperations) SyncProject(ctx context.Context, name string) (*git.PullSummary, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if composeFile, resolveErr := compose.ResolveFile(project.Path, project.ComposeFile); resolveErr == nil {
		opts := po.composeOptions(project, composeFile)
		if _, downErr := po.compose.Run(ctx, opts, "down"); downErr != nil {
			logger.WithFields(logger.Fields{
				"project": name,
				"error":   downErr.Error(),
			}).Warn("Pre-sync stop failed, pulling anyway")
		} else {
			if _, updErr := po.registry.Update(name, func(p *types.Project) error {
				p.Containers = nil
				p.Status = types.StatusStopped
				return nil
			}); updErr != nil {
				return nil, updErr
			}
		}
	}

	summary, err := po.git.Pull(ctx, project.Path)
	if err != nil {
		return nil, err
	}

	if _, err := po.registry.Update(name, func(p *types.Project) error {
		return nil
	}); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"project": name,
		"updated": summary.Updated(),
		"files":   summary.FilesChanged,
	}).Info("Project synced")
	return summary, nil
}

// UpdateEnvironmentVars replaces a project's environment variable set.
func (po *ProjectOperations) UpdateEnvironmentVars(ctx context.Context, name string, vars map[string]string) (*types.Project, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	for key := range vars {
		if err := validation.EnvVarKey(key); err != nil {
			return nil, err
		}
	}
	if vars == nil {
		vars = map[string]string{}
	}
	return po.registry.Update(name, func(p *types.Project) error {
		p.EnvironmentVars = vars
		return nil
	})
}

// UpdateSettingsRequest carries the mutable settings of a project. Nil
// pointer fields are left unchanged.
type UpdateSettingsRequest struct {
	ComposeFile    *string
	Dockerfile     *string
	AutoRestart    *bool
	ResourceLimits *types.ResourceLimits
	PortUpdates    []types.PortUpdate
}

// UpdateSettingsResult is the outcome of a settings update, including any
// advisory warnings from the port conflict check.
type UpdateSettingsResult struct {
	Project  *types.Project
	Warnings []string
}

// UpdateSettings applies settings changes. Port updates run through the
// conflict resolver before anything is persisted, and the project's port
// snapshot is refreshed from the compose file afterward whether or not
// ports were changed.
func (po *ProjectOperations) UpdateSettings(ctx context.Context, name string, req UpdateSettingsRequest) (*UpdateSettingsResult, error) {
	unlock := po.registry.LockProject(name)
	defer unlock()

	project, err := po.registry.Get(name)
	if err != nil {
		return nil, err
	}

	composeName := project.ComposeFile
	if req.ComposeFile != nil {
		composeName = *req.ComposeFile
	}

	var warnings []string
	var snapshot []types.PortMapping

	composeFile, resolveErr := compose.ResolveFile(project.Path, composeName)
	if len(req.PortUpdates) > 0 {
		if resolveErr != nil {
			return nil, resolveErr
		}
		doc, err := compose.LoadDocument(composeFile)
		if err != nil {
			return nil, err
		}
		snapshot, warnings, err = po.resolver.Apply(ctx, name, doc, req.PortUpdates)
		if err != nil {
			return nil, err
		}
	} else if resolveErr == nil {
		if doc, err := compose.LoadDocument(composeFile); err == nil {
			snapshot = doc.Ports()
		} else {
			logger.WithFields(logger.Fields{
				"project": name,
				"file":    composeFile,
				"error":   err.Error(),
			}).Warn("Could not refresh port snapshot")
			snapshot = project.Ports
		}
	} else {
		// A missing compose file degrades the same way a malformed one
		// does: the old snapshot stands.
		logger.WithFields(logger.Fields{
			"project": name,
			"error":   resolveErr.Error(),
		}).Warn("Could not refresh port snapshot")
		snapshot = project.Ports
	}

	updated, err := po.registry.Update(name, func(p *types.Project) error {
		if req.ComposeFile != nil {
			p.ComposeFile = *req.ComposeFile
		}
		if req.Dockerfile != nil {
			p.Dockerfile = *req.Dockerfile
		}
		if req.AutoRestart != nil {
			p.AutoRestart = *req.AutoRestart
		}
		if req.ResourceLimits != nil {
			p.ResourceLimits = *req.ResourceLimits
		}
		p.Ports = snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateSettingsResult{Project: updated, Warnings: warnings}, nil
}

// GetProject returns one project by name.
func (po *ProjectOperations) GetProject(name string) (*types.Project, error) {
	return po.registry.Get(name)
}

// ListProjects returns all registered projects sorted by name.
func (po *ProjectOperations) ListProjects() []*types.Project {
	return po.registry.List()
}

// portSnapshot extracts the advisory port list from the project's resolved
// compose file. Resolution or parse failures only warn.
func (po *ProjectOperations) portSnapshot(project *types.Project) []types.PortMapping {
	composeFile, err := compose.ResolveFile(project.Path, project.ComposeFile)
	if err != nil {
		return nil
	}
	doc, err := compose.LoadDocument(composeFile)
	if err != nil {
		logger.WithFields(logger.Fields{
			"project": project.Name,
			"file":    composeFile,
			"error":   err.Error(),
		}).Warn("Could not extract ports from compose file")
		return nil
	}
	return doc.Ports()
}

// composeOptions builds the invocation options for one project.
func (po *ProjectOperations) composeOptions(project *types.Project, composeFile string) container.ComposeOptions {
	return container.ComposeOptions{
		Dir:         project.Path,
		ProjectName: project.Name,
		ComposeFile: composeFile,
		Env:         project.EnvironmentVars,
	}
}

// checkRequiredEnvVars scans the compose file for required placeholders and
// fails when any are satisfied by neither the project nor the ambient
// environment.
func checkRequiredEnvVars(composeFile string, project *types.Project) error {
	required, err := compose.RequiredEnvVars(composeFile)
	if err != nil {
		return err
	}
	if missing := compose.MissingEnvVars(required, project.EnvironmentVars); len(missing) > 0 {
		return errors.MissingEnvVars(missing)
	}
	return nil
}

func newRecordID() string {
	return uuid.New().String()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// seedScript returns the conventional post-deploy hook path when it exists.
func seedScript(projectPath, relPath string) (string, bool) {
	path := filepath.Join(projectPath, relPath)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
