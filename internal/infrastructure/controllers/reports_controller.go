package controllers

import (
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// ReportsController handles the "reports" subcommand.
type ReportsController struct {
	command commands.Deploy
}

// NewReportsController creates a new ReportsController.
func NewReportsController(command commands.Deploy) *ReportsController {
	return &ReportsController{command: command}
}

// GetBind returns the Cobra command metadata for the reports controller.
func (it *ReportsController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "reports",
		Short: "Regenerate and publish all reports now",
		Long: `Run the full report regeneration and publish it, regardless of the
pending change count and the report cooldown. Resets the change count.`,
	}
}

// Execute runs a forced report deployment.
func (it *ReportsController) Execute(cmd *cobra.Command, _ []string) error {
	return runDeploy(cmd, it.command, entities.ModeReports)
}
