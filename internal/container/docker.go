package container

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"harbormaster/internal/errors"
)

// DockerClient is the thin query wrapper over the container runtime CLI:
// container state, bound host ports, logs, and forced removal during
// teardown. Everything else about the runtime is out of its hands.
type DockerClient struct {
	runner Runner
	bin    string
}

// NewDockerClient creates a client over the given runtime binary.
func NewDockerClient(runner Runner, bin string) *DockerClient {
	if runner == nil {
		runner = NewCommandRunner(nil)
	}
	if bin == "" {
		bin = "docker"
	}
	return &DockerClient{runner: runner, bin: bin}
}

// InspectState is the slice of docker inspect output the orchestrator
// consumes for health classification.
type InspectState struct {
	ID     string
	Name   string
	Status string // running, exited, created, ...
	Health string // healthy, unhealthy, starting; empty when no healthcheck
}

type inspectEnvelope struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Status string `json:"Status"`
		Health *struct {
			Status        string `json:"Status"`
			FailingStreak int    `json:"FailingStreak"`
		} `json:"Health"`
	} `json:"State"`
}

// Inspect returns the runtime state of one container.
func (c *DockerClient) Inspect(ctx context.Context, containerID string) (*InspectState, error) {
	result, err := c.runner.Run(ctx, RunSpec{
		Name: c.bin,
		Args: []string{"inspect", containerID},
	})
	if err != nil {
		return nil, errors.ContainerQueryFailed("inspect", err)
	}
	if result.ExitCode != 0 {
		if strings.Contains(result.Combined(), "No such") {
			return nil, errors.NewWithDetails(errors.ErrContainerNotFound, "Container not found", containerID)
		}
		return nil, errors.ContainerQueryFailed("inspect", fmt.Errorf("%s", strings.TrimSpace(result.Combined())))
	}

	var envelopes []inspectEnvelope
	if err := json.Unmarshal([]byte(result.Stdout), &envelopes); err != nil {
		return nil, errors.Wrap(errors.ErrJSONUnmarshal, "failed to parse inspect output", err)
	}
	if len(envelopes) == 0 {
		return nil, errors.NewWithDetails(errors.ErrContainerNotFound, "Container not found", containerID)
	}

	envelope := envelopes[0]
	state := &InspectState{
		ID:     envelope.ID,
		Name:   strings.TrimPrefix(envelope.Name, "/"),
		Status: envelope.State.Status,
	}
	if envelope.State.Health != nil {
		state.Health = envelope.State.Health.Status
	}
	return state, nil
}

// BoundHostPorts returns every host port currently bound by a running
// container, mapped to the names of the containers binding it. The scan is
// an external observation and may be stale; callers treat it as advisory.
func (c *DockerClient) BoundHostPorts(ctx context.Context) (map[int][]string, error) {
	result, err := c.runner.Run(ctx, RunSpec{
		Name: c.bin,
		Args: []string{"ps", "--format", "{{.Names}}|{{.Ports}}"},
	})
	if err != nil {
		return nil, errors.ContainerQueryFailed("ps", err)
	}
	if result.ExitCode != 0 {
		return nil, errors.ContainerQueryFailed("ps", fmt.Errorf("%s", strings.TrimSpace(result.Combined())))
	}

	bound := make(map[int][]string)
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		name, ports, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		for _, port := range parseBoundPorts(ports) {
			if !containsString(bound[port], name) {
				bound[port] = append(bound[port], name)
			}
		}
	}
	return bound, nil
}

// ContainerSummary is one row of the runtime's container listing.
type ContainerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

// ListAll returns every container known to the runtime, running or not.
func (c *DockerClient) ListAll(ctx context.Context) ([]ContainerSummary, error) {
	result, err := c.runner.Run(ctx, RunSpec{
		Name: c.bin,
		Args: []string{"ps", "-a", "--format", "{{.ID}}|{{.Names}}|{{.Image}}|{{.Status}}"},
	})
	if err != nil {
		return nil, errors.ContainerQueryFailed("ps", err)
	}
	if result.ExitCode != 0 {
		return nil, errors.ContainerQueryFailed("ps", fmt.Errorf("%s", strings.TrimSpace(result.Combined())))
	}

	var containers []ContainerSummary
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		containers = append(containers, ContainerSummary{
			ID:     parts[0],
			Name:   parts[1],
			Image:  parts[2],
			Status: parts[3],
		})
	}
	return containers, nil
}

// parseBoundPorts extracts host ports from a runtime port listing such as
// "0.0.0.0:8080->80/tcp, :::8080->80/tcp, 9000/tcp".
func parseBoundPorts(portsStr string) []int {
	var ports []int
	for _, mapping := range strings.Split(portsStr, ",") {
		mapping = strings.TrimSpace(mapping)
		hostPart, _, found := strings.Cut(mapping, "->")
		if !found {
			continue // Exposed but not published
		}
		// The host part may carry an IPv4 or IPv6 prefix; the port is the
		// last colon-separated segment.
		idx := strings.LastIndexByte(hostPart, ':')
		if idx < 0 {
			continue
		}
		if port, err := strconv.Atoi(hostPart[idx+1:]); err == nil {
			ports = append(ports, port)
		}
	}
	return ports
}

// ForceRemove removes a container regardless of its state.
func (c *DockerClient) ForceRemove(ctx context.Context, containerID string) error {
	result, err := c.runner.Run(ctx, RunSpec{
		Name: c.bin,
		Args: []string{"rm", "-f", containerID},
	})
	if err != nil {
		return errors.ContainerQueryFailed("rm", err)
	}
	if result.ExitCode != 0 {
		return errors.ContainerQueryFailed("rm", fmt.Errorf("%s", strings.TrimSpace(result.Combined())))
	}
	return nil
}

// Logs fetches a bounded tail of one container's logs.
func (c *DockerClient) Logs(ctx context.Context, containerID string, tail int) (string, error) {
	result, err := c.runner.Run(ctx, RunSpec{
		Name: c.bin,
		Args: []string{"logs", "--tail", strconv.Itoa(tail), containerID},
	})
	if err != nil {
		return "", errors.ContainerQueryFailed("logs", err)
	}
	if result.ExitCode != 0 {
		return "", errors.ContainerQueryFailed("logs", fmt.Errorf("%s", strings.TrimSpace(result.Combined())))
	}
	return result.Combined(), nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
