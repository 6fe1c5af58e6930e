package operations

import (
	"context"
	"fmt"

	"harbormaster/internal/logger"
)

// failure modes for teardown steps
const (
	onFailureWarn  = "warn"
	onFailureAbort = "abort"
)

// teardownStep is one action in an ordered best-effort teardown sequence.
type teardownStep struct {
	name      string
	onFailure string
	run       func(ctx context.Context) error
}

// runTeardown executes steps in order, accumulating a warning for each
// failed step marked warn and aborting only on a failed step marked abort.
func runTeardown(ctx context.Context, project string, steps []teardownStep) ([]string, error) {
	var warnings []string
	for _, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		if step.onFailure == onFailureAbort {
			return warnings, err
		}
		warning := fmt.Sprintf("%s: %v", step.name, err)
		warnings = append(warnings, warning)
		logger.WithFields(logger.Fields{
			"project": project,
			"step":    step.name,
			"error":   err.Error(),
		}).Warn("Teardown step failed, continuing")
	}
	return warnings, nil
}
