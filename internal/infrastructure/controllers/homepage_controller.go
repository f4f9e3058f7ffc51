package controllers

import (
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// HomepageController handles the "homepage" subcommand.
type HomepageController struct {
	command commands.Deploy
}

// NewHomepageController creates a new HomepageController.
func NewHomepageController(command commands.Deploy) *HomepageController {
	return &HomepageController{command: command}
}

// GetBind returns the Cobra command metadata for the homepage controller.
func (it *HomepageController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "homepage",
		Short: "Regenerate and publish the homepage now",
		Long: `Regenerate and publish the homepage, ignoring the homepage cooldown.
Pending report data changes are left for the next automatic cycle.`,
	}
}

// Execute runs a forced homepage deployment.
func (it *HomepageController) Execute(cmd *cobra.Command, _ []string) error {
	return runDeploy(cmd, it.command, entities.ModeHomepage)
}
