package controllers

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// UnlockController handles the "unlock" subcommand.
type UnlockController struct {
	command commands.Unlock
}

// NewUnlockController creates a new UnlockController.
func NewUnlockController(command commands.Unlock) *UnlockController {
	return &UnlockController{command: command}
}

// GetBind returns the Cobra command metadata for the unlock controller.
func (it *UnlockController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "unlock",
		Short: "Clear an abandoned deployment lock",
		Long: `Clear the deployment lock left behind by a run that died or hung.

A lock is stale when its owner process is gone or it is older than
lock.stale_after. Clearing requires --yes; clearing a lock whose owner
still looks alive additionally requires --force.`,
	}
}

// Execute clears the lock when allowed.
func (it *UnlockController) Execute(cmd *cobra.Command, _ []string) error {
	confirm, _ := cmd.Flags().GetBool("yes")
	force, _ := cmd.Flags().GetBool("force")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	status, err := it.command.Execute(commandContext(cmd), settings, commands.UnlockOptions{
		Confirm: confirm,
		Force:   force,
	})
	if err != nil {
		return fmt.Errorf("unlock failed: %w", err)
	}
	if status != nil && status.Held {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deployment lock cleared")
	}
	return nil
}

// AddFlags adds the unlock-specific flags to the given Cobra command.
func (it *UnlockController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Confirm clearing the lock")
	cmd.Flags().Bool("force", false, "Clear the lock even if its owner still looks alive")
}
