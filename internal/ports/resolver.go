// Package ports validates and applies host-port rebinding requests against
// every source of conflict the system knows about: the edited document
// itself, every other registered project's last-known ports, and the host
// ports currently bound by running containers.
package ports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"harbormaster/internal/compose"
	"harbormaster/internal/errors"
	"harbormaster/internal/logger"
	"harbormaster/internal/registry"
	"harbormaster/internal/types"
	"harbormaster/internal/validation"
)

// BoundPortLister is the runtime-side advisory scan of host ports in use.
type BoundPortLister interface {
	BoundHostPorts(ctx context.Context) (map[int][]string, error)
}

// Resolver checks port updates for one project against the registry and the
// live container set.
type Resolver struct {
	registry *registry.Registry
	docker   BoundPortLister
}

// New creates a resolver.
func New(reg *registry.Registry, docker BoundPortLister) *Resolver {
	return &Resolver{registry: reg, docker: docker}
}

// Apply validates the updates, rewrites the document in memory, checks the
// prospective port set for conflicts, and only then persists the rewritten
// document to disk. It returns the full prospective port set and any
// advisory warnings.
//
// Conflicts within the document and against other projects' registry
// snapshots are hard failures. A port bound by a live container only
// warns; the observation is external and possibly stale, and the holder
// may be this very project being redeployed.
func (r *Resolver) Apply(ctx context.Context, projectName string, doc *compose.Document, updates []types.PortUpdate) ([]types.PortMapping, []string, error) {
	if err := validateUpdates(updates); err != nil {
		return nil, nil, err
	}

	if err := doc.ApplyPortUpdates(updates); err != nil {
		return nil, nil, err
	}

	prospective := doc.Ports()

	if err := checkDocumentDuplicates(prospective); err != nil {
		return nil, nil, err
	}

	if err := r.checkCrossProject(projectName, prospective); err != nil {
		return nil, nil, err
	}

	warnings := r.liveBindingWarnings(ctx, projectName, prospective)

	if err := doc.Save(); err != nil {
		return nil, nil, err
	}

	return prospective, warnings, nil
}

// validateUpdates rejects the whole request before any file is touched when
// any value is out of range.
func validateUpdates(updates []types.PortUpdate) error {
	for _, update := range updates {
		if strings.TrimSpace(update.Service) == "" {
			return errors.ValidationFailed("service", update.Service, "cannot be empty")
		}
		if err := validation.PortNumber(update.ContainerPort); err != nil {
			return err
		}
		if err := validation.PortNumber(update.HostPort); err != nil {
			return err
		}
	}
	return nil
}

// checkDocumentDuplicates rejects a host port bound by more than one
// service port within the same document.
func checkDocumentDuplicates(mappings []types.PortMapping) error {
	byHost := make(map[int][]string)
	for _, mapping := range mappings {
		if mapping.HostPort == 0 {
			continue
		}
		key := fmt.Sprintf("%s:%d/%s", mapping.Service, mapping.ContainerPort, mapping.Protocol)
		byHost[mapping.HostPort] = append(byHost[mapping.HostPort], key)
	}

	hosts := make([]int, 0, len(byHost))
	for host := range byHost {
		hosts = append(hosts, host)
	}
	sort.Ints(hosts)

	for _, host := range hosts {
		if bindings := byHost[host]; len(bindings) > 1 {
			return errors.DuplicatePortBinding(host, bindings)
		}
	}
	return nil
}

// checkCrossProject rejects any prospective host port already recorded in
// another project's port snapshot.
func (r *Resolver) checkCrossProject(projectName string, mappings []types.PortMapping) error {
	taken := r.registry.OtherProjectPorts(projectName)
	for _, mapping := range mappings {
		if mapping.HostPort == 0 {
			continue
		}
		if holders, ok := taken[mapping.HostPort]; ok {
			return errors.PortConflict(mapping.HostPort, strings.Join(holders, ", "))
		}
	}
	return nil
}

// liveBindingWarnings reports prospective ports already bound by running
// containers. This never blocks the update.
func (r *Resolver) liveBindingWarnings(ctx context.Context, projectName string, mappings []types.PortMapping) []string {
	bound, err := r.docker.BoundHostPorts(ctx)
	if err != nil {
		logger.WithFields(logger.Fields{
			"project": projectName,
			"error":   err.Error(),
		}).Warn("Could not scan live container ports")
		return []string{fmt.Sprintf("live port scan failed: %v", err)}
	}

	var warnings []string
	for _, mapping := range mappings {
		if mapping.HostPort == 0 {
			continue
		}
		if holders, ok := bound[mapping.HostPort]; ok {
			warning := fmt.Sprintf("host port %d is currently bound by container %s",
				mapping.HostPort, strings.Join(holders, ", "))
			warnings = append(warnings, warning)
			logger.WithFields(logger.Fields{
				"project":   projectName,
				"host_port": mapping.HostPort,
				"holders":   strings.Join(holders, ", "),
			}).Warn("Requested host port is bound by a running container")
		}
	}
	return warnings
}
