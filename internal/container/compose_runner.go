package container

import (
	"context"
	"strings"

	"harbormaster/internal/errors"
	"harbormaster/internal/logger"
)

// fallbackSignatures are output fragments indicating the invoked tool or
// subcommand does not exist at all, as opposed to a genuine command failure.
// Only these trigger a retry against the legacy binary; anything else is
// returned as-is so a real failure is never masked by a pointless retry.
var fallbackSignatures = []string{
	"is not a docker command",
	"unknown docker command",
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"executable file not found",
	"command not found",
}

// matchesFallbackSignature reports whether combined command output looks
// like a tool-unavailable condition.
func matchesFallbackSignature(output string) bool {
	lower := strings.ToLower(output)
	for _, signature := range fallbackSignatures {
		if strings.Contains(lower, signature) {
			return true
		}
	}
	return false
}

// ComposeOptions identify the compose project an invocation acts on.
type ComposeOptions struct {
	Dir         string            // Checkout directory the command runs in
	ProjectName string            // Compose project name (-p)
	ComposeFile string            // Compose file path (-f), optional
	Env         map[string]string // Project env vars layered onto the ambient env
}

// ComposeResult is a RunResult annotated with the tool that produced it, so
// downstream log messages stay attributable.
type ComposeResult struct {
	*RunResult
	Tool string
}

// ComposeRunner drives compose verbs through the primary binary (the docker
// compose plugin) and falls back to the legacy standalone binary when the
// primary's output shows the subcommand is unavailable.
type ComposeRunner struct {
	runner  Runner
	primary string
	legacy  string
}

// NewComposeRunner creates an invoker over the given binaries.
func NewComposeRunner(runner Runner, primary, legacy string) *ComposeRunner {
	if runner == nil {
		runner = NewCommandRunner(nil)
	}
	return &ComposeRunner{runner: runner, primary: primary, legacy: legacy}
}

// Run executes one compose verb. On success the result's Tool names the
// binary that produced it. On failure the result is still returned next to
// the error so callers can preserve the output verbatim.
func (r *ComposeRunner) Run(ctx context.Context, opts ComposeOptions, verb string, extra ...string) (*ComposeResult, error) {
	primaryResult, primaryErr := r.runner.Run(ctx, RunSpec{
		Name: r.primary,
		Args: r.primaryArgs(opts, verb, extra),
		Dir:  opts.Dir,
		Env:  opts.Env,
	})

	if primaryResult.ExitCode == 0 && primaryErr == nil {
		return &ComposeResult{RunResult: primaryResult, Tool: r.primary + " compose"}, nil
	}

	if !matchesFallbackSignature(primaryResult.Combined()) {
		result := &ComposeResult{RunResult: primaryResult, Tool: r.primary + " compose"}
		return result, errors.ToolFailed(result.Tool, verb, primaryResult.Combined(), primaryErr)
	}

	logger.WithFields(logger.Fields{
		"project": opts.ProjectName,
		"verb":    verb,
		"primary": r.primary,
		"legacy":  r.legacy,
	}).Warn("Primary compose tool unavailable, retrying with legacy binary")

	legacyResult, legacyErr := r.runner.Run(ctx, RunSpec{
		Name: r.legacy,
		Args: r.legacyArgs(opts, verb, extra),
		Dir:  opts.Dir,
		Env:  opts.Env,
	})

	result := &ComposeResult{RunResult: legacyResult, Tool: r.legacy}
	if legacyResult.ExitCode == 0 && legacyErr == nil {
		return result, nil
	}
	return result, errors.ToolFailed(result.Tool, verb, legacyResult.Combined(), legacyErr)
}

// primaryArgs builds "compose -p NAME [-f FILE] VERB EXTRA..." for the
// docker compose plugin.
func (r *ComposeRunner) primaryArgs(opts ComposeOptions, verb string, extra []string) []string {
	args := []string{"compose", "-p", opts.ProjectName}
	if opts.ComposeFile != "" {
		args = append(args, "-f", opts.ComposeFile)
	}
	args = append(args, verb)
	return append(args, extra...)
}

// legacyArgs builds the same invocation in the standalone binary's dialect,
// which takes the verb directly without the "compose" prefix.
func (r *ComposeRunner) legacyArgs(opts ComposeOptions, verb string, extra []string) []string {
	args := []string{"-p", opts.ProjectName}
	if opts.ComposeFile != "" {
		args = append(args, "-f", opts.ComposeFile)
	}
	args = append(args, verb)
	return append(args, extra...)
}
