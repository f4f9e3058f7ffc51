package controllers

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// WatchController handles the "watch" subcommand (daemon mode).
type WatchController struct {
	command commands.Watch
}

// NewWatchController creates a new WatchController.
func NewWatchController(command commands.Watch) *WatchController {
	return &WatchController{command: command}
}

// GetBind returns the Cobra command metadata for the watch controller.
func (it *WatchController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "watch",
		Short: "Run automatic cycles continuously",
		Long: `Run the automatic cycle every watch.interval and, when
watch.filesystem_events is enabled, shortly after tracked files change.
Serves Prometheus metrics on metrics.listen when set. Stops on SIGINT or SIGTERM.`,
	}
}

// Execute blocks until the process is interrupted.
func (it *WatchController) Execute(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err = it.command.Execute(ctx, settings, commands.WatchOptions{Verbose: verbose}); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
