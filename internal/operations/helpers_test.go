package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"harbormaster/internal/config"
	"harbormaster/internal/container"
	"harbormaster/internal/git"
	"harbormaster/internal/registry"

	"github.com/stretchr/testify/require"
)

// fakeGit simulates the version-control client. Clone materializes the
// checkout with the configured files so later steps see a real directory.
type fakeGit struct {
	cloneFiles  map[string]string // written into the checkout on Clone
	cloneErr    error
	pullErr     error
	pullSummary *git.PullSummary
	cloneCalls  []string
	pullCalls   []string
}

func (f *fakeGit) IsRepository(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

func (f *fakeGit) Clone(ctx context.Context, repoURL, path, branch string) error {
	f.cloneCalls = append(f.cloneCalls, fmt.Sprintf("%s@%s->%s", repoURL, branch, path))
	if f.cloneErr != nil {
		return f.cloneErr
	}
	if err := os.MkdirAll(filepath.Join(path, ".git"), 0755); err != nil {
		return err
	}
	for name, content := range f.cloneFiles {
		full := filepath.Join(path, name)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0755); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeGit) Pull(ctx context.Context, path string) (*git.PullSummary, error) {
	f.pullCalls = append(f.pullCalls, path)
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.pullSummary != nil {
		return f.pullSummary, nil
	}
	return &git.PullSummary{}, nil
}

func (f *fakeGit) CurrentBranch(path string) (string, error) {
	return "main", nil
}

// invocation is one recorded compose call.
type invocation struct {
	verb  string
	extra []string
	opts  container.ComposeOptions
}

// fakeInvoker replays canned outcomes per verb and records every call.
type fakeInvoker struct {
	results map[string]*container.ComposeResult
	errs    map[string]error
	calls   []invocation
}

func (f *fakeInvoker) Run(ctx context.Context, opts container.ComposeOptions, verb string, extra ...string) (*container.ComposeResult, error) {
	f.calls = append(f.calls, invocation{verb: verb, extra: extra, opts: opts})
	if err, ok := f.errs[verb]; ok && err != nil {
		result := f.results[verb]
		if result == nil {
			result = &container.ComposeResult{RunResult: &container.RunResult{ExitCode: 1}, Tool: "docker compose"}
		}
		return result, err
	}
	if result, ok := f.results[verb]; ok {
		return result, nil
	}
	return &container.ComposeResult{RunResult: &container.RunResult{}, Tool: "docker compose"}, nil
}

func (f *fakeInvoker) verbs() []string {
	var out []string
	for _, call := range f.calls {
		out = append(out, call.verb)
	}
	return out
}

// fakeDocker answers the direct runtime queries.
type fakeDocker struct {
	inspect      map[string]*container.InspectState
	inspectErr   map[string]error
	listAll      []container.ContainerSummary
	listAllErr   error
	boundPorts   map[int][]string
	removeErr    map[string]error
	removedIDs   []string
	logs         map[string]string
	logsErr      map[string]error
}

func (f *fakeDocker) Inspect(ctx context.Context, id string) (*container.InspectState, error) {
	if err := f.inspectErr[id]; err != nil {
		return nil, err
	}
	state, ok := f.inspect[id]
	if !ok {
		return nil, fmt.Errorf("no such container %s", id)
	}
	return state, nil
}

func (f *fakeDocker) ListAll(ctx context.Context) ([]container.ContainerSummary, error) {
	if f.listAllErr != nil {
		return nil, f.listAllErr
	}
	return f.listAll, nil
}

func (f *fakeDocker) BoundHostPorts(ctx context.Context) (map[int][]string, error) {
	return f.boundPorts, nil
}

func (f *fakeDocker) ForceRemove(ctx context.Context, id string) error {
	if err := f.removeErr[id]; err != nil {
		return err
	}
	f.removedIDs = append(f.removedIDs, id)
	return nil
}

func (f *fakeDocker) Logs(ctx context.Context, id string, tail int) (string, error) {
	if err := f.logsErr[id]; err != nil {
		return "", err
	}
	return f.logs[id], nil
}

// fakeRunner records seed hook invocations.
type fakeRunner struct {
	result *container.RunResult
	err    error
	specs  []container.RunSpec
}

func (f *fakeRunner) Run(ctx context.Context, spec container.RunSpec) (*container.RunResult, error) {
	f.specs = append(f.specs, spec)
	if f.result != nil {
		return f.result, f.err
	}
	return &container.RunResult{}, f.err
}

// testEnv bundles the operations instance with its fakes.
type testEnv struct {
	ops     *ProjectOperations
	cfg     *config.GlobalConfig
	reg     *registry.Registry
	git     *fakeGit
	invoker *fakeInvoker
	docker  *fakeDocker
	runner  *fakeRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultGlobalConfig()
	cfg.Storage.ProjectsDir = filepath.Join(root, "projects")
	cfg.Storage.RegistryPath = filepath.Join(root, "registry.json")

	reg := registry.New(cfg.Storage.RegistryPath)
	require.NoError(t, reg.Load())

	env := &testEnv{
		cfg: cfg,
		reg: reg,
		git: &fakeGit{cloneFiles: map[string]string{
			"docker-compose.yml": "services:\n  web:\n    ports:\n      - \"8080:80\"\n",
		}},
		invoker: &fakeInvoker{
			results: map[string]*container.ComposeResult{},
			errs:    map[string]error{},
		},
		docker: &fakeDocker{
			inspect:    map[string]*container.InspectState{},
			inspectErr: map[string]error{},
			removeErr:  map[string]error{},
			logs:       map[string]string{},
			logsErr:    map[string]error{},
		},
		runner: &fakeRunner{},
	}
	env.ops = New(cfg, reg, env.git, env.invoker, env.docker, env.runner)
	return env
}

// addDemo registers the canonical test project through AddProject.
func (env *testEnv) addDemo(t *testing.T) {
	t.Helper()
	_, err := env.ops.AddProject(context.Background(), AddProjectRequest{
		Name:    "demo",
		RepoURL: "https://example.com/demo.git",
	})
	require.NoError(t, err)
}

// setPSOutput makes "ps -q" report the given container ids.
func (env *testEnv) setPSOutput(ids string) {
	env.invoker.results["ps"] = &container.ComposeResult{
		RunResult: &container.RunResult{Stdout: ids},
		Tool:      "docker compose",
	}
}
