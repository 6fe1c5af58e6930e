package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"harbormaster/internal/errors"
	"harbormaster/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	reg := New(path)
	require.NoError(t, reg.Load())
	return reg, path
}

func testProject(name string) *types.Project {
	now := time.Now()
	return &types.Project{
		Name:        name,
		RepoURL:     "https://example.com/" + name + ".git",
		Branch:      "main",
		Status:      types.StatusConfigured,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func TestLoadInitializesMissingFile(t *testing.T) {
	_, path := newTestRegistry(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var file map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Contains(t, file, "projects")
	assert.Contains(t, file, "settings")
}

func TestCreateWritesThrough(t *testing.T) {
	reg, path := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))

	// A fresh registry over the same file sees the project
	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	project, err := reloaded.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/demo.git", project.RepoURL)
}

func TestCreateDuplicateName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))

	err := reg.Create(testProject("demo"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProjectExists))
}

func TestGetNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProjectNotFound))
}

func TestGetReturnsCopy(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))

	first, err := reg.Get("demo")
	require.NoError(t, err)
	first.Branch = "mutated"

	second, err := reg.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, "main", second.Branch)
}

func TestUpdateTouchesAndPersists(t *testing.T) {
	reg, path := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))

	before, err := reg.Get("demo")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	updated, err := reg.Update("demo", func(p *types.Project) error {
		p.Status = types.StatusBuilt
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusBuilt, updated.Status)
	assert.True(t, updated.LastUpdated.After(before.LastUpdated))

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	project, err := reloaded.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusBuilt, project.Status)
}

func TestUpdateMutationErrorStoresNothing(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))

	_, err := reg.Update("demo", func(p *types.Project) error {
		p.Status = types.StatusRunning
		return assert.AnError
	})
	require.Error(t, err)

	project, err := reg.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfigured, project.Status)
}

func TestDelete(t *testing.T) {
	reg, path := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("demo")))
	require.NoError(t, reg.Delete("demo"))
	assert.False(t, reg.Exists("demo"))

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	assert.False(t, reloaded.Exists("demo"))

	err := reg.Delete("demo")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProjectNotFound))
}

func TestListSorted(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Create(testProject("zeta")))
	require.NoError(t, reg.Create(testProject("alpha")))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)
}

func TestOtherProjectPorts(t *testing.T) {
	reg, _ := newTestRegistry(t)

	x := testProject("x")
	x.Ports = []types.PortMapping{
		{Service: "web", ContainerPort: 80, HostPort: 9000, Protocol: "tcp"},
		{Service: "metrics", ContainerPort: 9102, Protocol: "tcp"}, // unpublished
	}
	y := testProject("y")
	y.Ports = []types.PortMapping{
		{Service: "api", ContainerPort: 8000, HostPort: 9001, Protocol: "tcp"},
	}
	require.NoError(t, reg.Create(x))
	require.NoError(t, reg.Create(y))

	ports := reg.OtherProjectPorts("y")
	assert.Equal(t, []string{"x/web"}, ports[9000])
	assert.NotContains(t, ports, 9001)
	assert.NotContains(t, ports, 9102)
}

func TestLockProjectSerializes(t *testing.T) {
	reg, _ := newTestRegistry(t)

	unlock := reg.LockProject("demo")
	acquired := make(chan struct{})
	go func() {
		u := reg.LockProject("demo")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
