// Package container executes external orchestration and runtime commands:
// the buffered command runner, the compose tool invoker with its legacy
// fallback, and the thin docker query wrapper.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// CommandExecutor interface for executing commands (allows mocking in tests)
type CommandExecutor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandExecutor implements CommandExecutor using standard exec
type DefaultCommandExecutor struct{}

func (e *DefaultCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// RunSpec describes one external command invocation.
type RunSpec struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string // Layered onto the ambient environment
}

// RunResult is the buffered outcome of a completed command. Commands run to
// completion; there is no output streaming.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr joined, for signature matching and
// error reporting.
func (r *RunResult) Combined() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes commands and captures their output.
type Runner interface {
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
}

// CommandRunner is the default Runner built on a CommandExecutor.
type CommandRunner struct {
	executor CommandExecutor
}

// NewCommandRunner creates a runner; a nil executor uses the default.
func NewCommandRunner(executor CommandExecutor) *CommandRunner {
	if executor == nil {
		executor = &DefaultCommandExecutor{}
	}
	return &CommandRunner{executor: executor}
}

// Run executes the command and returns its buffered output. A non-zero exit
// is not an error here; ExitCode carries it. The returned error covers
// failures to start the process (missing binary, bad working directory) and
// context cancellation.
func (r *CommandRunner) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	cmd := r.executor.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(spec.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// The process never ran; surface the launch error in the result too so
	// fallback signature matching can see "executable file not found".
	result.ExitCode = -1
	result.Stderr = strings.TrimSpace(result.Stderr + "\n" + err.Error())
	return result, fmt.Errorf("failed to run %s: %w", spec.Name, err)
}

// mergeEnv layers overrides onto the ambient environment, overrides winning.
func mergeEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // nil means inherit as-is
	}

	merged := make(map[string]string)
	for _, entry := range os.Environ() {
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			merged[entry[:idx]] = entry[idx+1:]
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}
