// Package registry is the durable store of all project records. The whole
// registry lives in one JSON file, loaded once at startup and rewritten
// after every mutation (write-through). An in-memory index keyed by project
// name serves reads; per-project locks serialize multi-step operations on
// the same project while leaving different projects independent.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"harbormaster/internal/constants"
	"harbormaster/internal/errors"
	"harbormaster/internal/types"
	"harbormaster/internal/xdg"
)

// registryFile is the on-disk shape: {"projects": {...}, "settings": {}}.
type registryFile struct {
	Projects map[string]*types.Project `json:"projects"`
	Settings map[string]interface{}    `json:"settings"`
}

// Registry owns the project map and its persistence.
type Registry struct {
	path string

	mu       sync.RWMutex
	projects map[string]*types.Project
	settings map[string]interface{}

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates a registry backed by the given file path. Call Load before use.
func New(path string) *Registry {
	return &Registry{
		path:     path,
		projects: make(map[string]*types.Project),
		settings: make(map[string]interface{}),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Load reads the registry file. A missing file initializes an empty
// registry and writes it out.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r.persistLocked()
	}
	if err != nil {
		return errors.Wrap(errors.ErrFileRead, "failed to read registry file", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Wrap(errors.ErrJSONUnmarshal, "failed to parse registry file", err)
	}

	if file.Projects == nil {
		file.Projects = make(map[string]*types.Project)
	}
	if file.Settings == nil {
		file.Settings = make(map[string]interface{})
	}
	r.projects = file.Projects
	r.settings = file.Settings
	return nil
}

// LockProject serializes operations on one project. The returned function
// releases the lock. Operations on different projects do not contend.
func (r *Registry) LockProject(name string) func() {
	r.lockMu.Lock()
	lock, ok := r.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	r.lockMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Get returns a deep copy of one project.
func (r *Registry) Get(name string) (*types.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[name]
	if !ok {
		return nil, errors.ProjectNotFound(name)
	}
	return project.Clone(), nil
}

// Exists reports whether a project is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.projects[name]
	return ok
}

// List returns deep copies of all projects, sorted by name.
func (r *Registry) List() []*types.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Project, 0, len(r.projects))
	for _, project := range r.projects {
		out = append(out, project.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create registers a new project and persists. The name must be unused.
func (r *Registry) Create(project *types.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[project.Name]; ok {
		return errors.ProjectExists(project.Name)
	}

	r.projects[project.Name] = project.Clone()
	return r.persistLocked()
}

// Update applies a mutation to one project under the registry lock and
// persists the result. The mutation sees a copy; nothing is stored if it
// returns an error.
func (r *Registry) Update(name string, mutate func(*types.Project) error) (*types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.projects[name]
	if !ok {
		return nil, errors.ProjectNotFound(name)
	}

	updated := stored.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	updated.Touch()

	r.projects[name] = updated
	if err := r.persistLocked(); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete removes a project and persists.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[name]; !ok {
		return errors.ProjectNotFound(name)
	}

	delete(r.projects, name)
	return r.persistLocked()
}

// OtherProjectPorts returns the last-known published host ports of every
// project except the named one, mapped to "project/service" holders. This
// snapshot is the authoritative cross-project port source of truth.
func (r *Registry) OtherProjectPorts(excludeName string) map[int][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ports := make(map[int][]string)
	for name, project := range r.projects {
		if name == excludeName {
			continue
		}
		for _, mapping := range project.Ports {
			if mapping.HostPort == 0 {
				continue
			}
			ports[mapping.HostPort] = append(ports[mapping.HostPort], name+"/"+mapping.Service)
		}
	}
	return ports
}

// persistLocked writes the registry file; callers hold r.mu.
func (r *Registry) persistLocked() error {
	if err := xdg.EnsureDir(filepath.Dir(r.path)); err != nil {
		return errors.Wrap(errors.ErrFileSystem, "failed to create registry directory", err)
	}

	data, err := json.MarshalIndent(registryFile{
		Projects: r.projects,
		Settings: r.settings,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrJSONMarshal, "failed to serialize registry", err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, constants.FilePermissions); err != nil {
		return errors.Wrap(errors.ErrFileWrite, "failed to write registry file", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(errors.ErrFileWrite, "failed to replace registry file", err)
	}
	return nil
}
