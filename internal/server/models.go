package server

import (
	"harbormaster/internal/container"
	"harbormaster/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse represents a successful operation response
type SuccessResponse struct {
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

// StatusResponse represents the overall system status
type StatusResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Projects int    `json:"projects"`
}

// AddProjectRequest is the payload for registering a project
type AddProjectRequest struct {
	Name            string            `json:"name" validate:"required"`
	RepoURL         string            `json:"repo_url" validate:"required"`
	Branch          string            `json:"branch"`
	Dockerfile      string            `json:"dockerfile"`
	ComposeFile     string            `json:"compose_file"`
	EnvironmentVars map[string]string `json:"environment_vars"`
}

// UpdateEnvVarsRequest is the payload for replacing a project's environment
type UpdateEnvVarsRequest struct {
	EnvironmentVars map[string]string `json:"environment_vars"`
}

// UpdateSettingsRequest is the payload for changing project settings; nil
// fields are left unchanged
type UpdateSettingsRequest struct {
	ComposeFile    *string               `json:"compose_file,omitempty"`
	Dockerfile     *string               `json:"dockerfile,omitempty"`
	AutoRestart    *bool                 `json:"auto_restart,omitempty"`
	ResourceLimits *types.ResourceLimits `json:"resource_limits,omitempty"`
	PortUpdates    []types.PortUpdate    `json:"port_updates,omitempty"`
}

// ProjectResponse wraps one project, optionally with advisory warnings
type ProjectResponse struct {
	Project  *types.Project `json:"project"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ProjectsResponse represents a list of projects
type ProjectsResponse struct {
	Projects []*types.Project `json:"projects"`
	Total    int              `json:"total"`
}

// SyncResponse reports the outcome of a repository sync
type SyncResponse struct {
	Updated      bool `json:"updated"`
	FilesChanged int  `json:"files_changed"`
	Insertions   int  `json:"insertions"`
	Deletions    int  `json:"deletions"`
}

// LogsResponse carries bounded log tails per container
type LogsResponse struct {
	Project    string                `json:"project"`
	Containers []types.ContainerLogs `json:"containers"`
}

// ContainersResponse lists every container known to the runtime
type ContainersResponse struct {
	Containers []container.ContainerSummary `json:"containers"`
	Total      int                          `json:"total"`
}
