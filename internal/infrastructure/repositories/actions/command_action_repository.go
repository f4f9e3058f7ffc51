package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

const (
	// waitDelay bounds how long a killed step may keep its output pipes open.
	waitDelay = 5 * time.Second
	// maxOutputTail is how much of a failed step's output ends up in the error.
	maxOutputTail = 2048
)

// CommandActionRepository runs the configured regeneration commands in the workspace.
type CommandActionRepository struct {
	workspace string
	settings  entities.ActionSettings
}

// NewActionRepository creates a repository running steps inside workspace.
func NewActionRepository(workspace string, settings entities.ActionSettings) *CommandActionRepository {
	return &CommandActionRepository{workspace: workspace, settings: settings}
}

// Regenerate runs the steps of kind in order under one shared timeout. A
// failing optional step is logged and skipped; any other failure stops the run.
func (it *CommandActionRepository) Regenerate(ctx context.Context, kind entities.DeploymentKind) error {
	steps := it.settings.StepsFor(kind)
	if len(steps) == 0 {
		logger.Warnf("No %s steps configured, publishing the workspace as is", kind)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, it.settings.Timeout)
	defer cancel()

	for i, step := range steps {
		logger.Infof("[%s %d/%d] %s", kind, i+1, len(steps), step.Run)
		output, err := it.runStep(ctx, step.Run)
		if err == nil {
			logger.Debugf("[%s] Output:\n%s", kind, output)
			continue
		}

		actionErr := &entities.ActionError{Kind: kind, Step: step.Run, Output: tail(output), Err: err}
		if step.Optional && !errors.Is(err, entities.ErrExternalActionTimeout) {
			logger.Warnf("Optional step failed, continuing: %v", actionErr)
			continue
		}
		return actionErr
	}
	return nil
}

func (it *CommandActionRepository) runStep(ctx context.Context, raw string) (string, error) {
	args, err := shellwords.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parse command: %w", entities.ErrExternalActionFailed, err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("%w: empty command", entities.ErrExternalActionFailed)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // operator-configured command
	cmd.Dir = it.workspace
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.WaitDelay = waitDelay

	output, runErr := cmd.CombinedOutput()
	if runErr == nil {
		return string(output), nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return string(output), fmt.Errorf("%w after %s", entities.ErrExternalActionTimeout, it.settings.Timeout)
	}
	return string(output), fmt.Errorf("%w: %w", entities.ErrExternalActionFailed, runErr)
}

func tail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) <= maxOutputTail {
		return output
	}
	return "..." + output[len(output)-maxOutputTail:]
}
