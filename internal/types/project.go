// Package types defines the core data model shared across harbormaster components.
package types

import "time"

// ProjectStatus represents a project's position in its lifecycle state machine.
type ProjectStatus string

const (
	StatusConfigured ProjectStatus = "configured"
	StatusBuilding   ProjectStatus = "building"
	StatusBuilt      ProjectStatus = "built"
	StatusRunning    ProjectStatus = "running"
	StatusStopped    ProjectStatus = "stopped"
	StatusError      ProjectStatus = "error"
)

// HealthState classifies the aggregate health of a project's containers.
type HealthState string

const (
	HealthHealthy      HealthState = "healthy"
	HealthUnhealthy    HealthState = "unhealthy"
	HealthNoContainers HealthState = "no_containers"
	HealthError        HealthState = "error"
)

// PortMapping is one declared port of one compose service.
// HostPort is zero when the document does not publish the port.
type PortMapping struct {
	Service       string `json:"service"`
	ContainerPort int    `json:"container_port"`
	HostPort      int    `json:"host_port,omitempty"`
	Protocol      string `json:"protocol"`
}

// PortUpdate is a request to rebind one service port to a new host port.
type PortUpdate struct {
	Service       string `json:"service"`
	ContainerPort int    `json:"container_port"`
	Protocol      string `json:"protocol"`
	HostPort      int    `json:"host_port"`
}

// BuildRecord is one append-only entry in a project's build history.
type BuildRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Tool      string    `json:"tool,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// DeployRecord is one append-only entry in a project's deploy history.
// Action distinguishes deploys from stops, which share the history array.
type DeployRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Success    bool      `json:"success"`
	Tool       string    `json:"tool,omitempty"`
	Containers []string  `json:"containers,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// HealthRecord is one append-only entry in a project's health check history.
type HealthRecord struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Overall   HealthState `json:"overall"`
	Issues    []string    `json:"issues,omitempty"`
}

// ContainerHealth is the per-container portion of a health report.
type ContainerHealth struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Health string `json:"health"`
}

// HealthReport is the result of a single project health check.
type HealthReport struct {
	Overall    HealthState       `json:"overall"`
	Containers []ContainerHealth `json:"containers"`
	Issues     []string          `json:"issues,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// ContainerLogs holds the bounded log tail of one container.
type ContainerLogs struct {
	ContainerID string `json:"container_id"`
	Logs        string `json:"logs,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ResourceLimits are advisory resource hints recorded per project.
// They are not enforced by the orchestrator.
type ResourceLimits struct {
	Memory string `json:"memory,omitempty"`
	CPU    string `json:"cpu,omitempty"`
}

// DefaultResourceLimits returns the hints seeded onto new projects.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{Memory: "512m", CPU: "0.5"}
}

// Project is one managed, source-controlled, containerized application.
// Name is the unique key; it doubles as the checkout directory name and
// the compose project name, so it must stay stable for the project's life.
type Project struct {
	Name            string            `json:"name"`
	RepoURL         string            `json:"repo_url"`
	Branch          string            `json:"branch"`
	Path            string            `json:"path"`
	Dockerfile      string            `json:"dockerfile"`
	ComposeFile     string            `json:"compose_file"`
	EnvironmentVars map[string]string `json:"environment_vars"`
	Containers      []string          `json:"containers"`
	Ports           []PortMapping     `json:"ports"`
	Status          ProjectStatus     `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	LastUpdated     time.Time         `json:"last_updated"`
	BuildHistory    []BuildRecord     `json:"build_history"`
	DeployHistory   []DeployRecord    `json:"deploy_history"`
	HealthChecks    []HealthRecord    `json:"health_checks"`
	AutoRestart     bool              `json:"auto_restart"`
	ResourceLimits  ResourceLimits    `json:"resource_limits"`
}

// Clone returns a deep copy so registry callers cannot mutate stored state.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.EnvironmentVars != nil {
		cp.EnvironmentVars = make(map[string]string, len(p.EnvironmentVars))
		for k, v := range p.EnvironmentVars {
			cp.EnvironmentVars[k] = v
		}
	}
	cp.Containers = append([]string(nil), p.Containers...)
	cp.Ports = append([]PortMapping(nil), p.Ports...)
	cp.BuildHistory = append([]BuildRecord(nil), p.BuildHistory...)
	cp.DeployHistory = append([]DeployRecord(nil), p.DeployHistory...)
	cp.HealthChecks = append([]HealthRecord(nil), p.HealthChecks...)
	return &cp
}

// Touch bumps the last-updated timestamp.
func (p *Project) Touch() {
	p.LastUpdated = time.Now()
}
