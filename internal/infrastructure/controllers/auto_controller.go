package controllers

import (
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// AutoController handles the "auto" subcommand, also run by the bare root command.
type AutoController struct {
	command commands.Deploy
}

// NewAutoController creates a new AutoController.
func NewAutoController(command commands.Deploy) *AutoController {
	return &AutoController{command: command}
}

// GetBind returns the Cobra command metadata for the auto controller.
func (it *AutoController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "auto",
		Short: "Detect changes and deploy when the policy says so",
		Long: `Detect changed site files and decide what to deploy.

Homepage changes are deployed right away, code changes trigger a full
report regeneration, and report data changes are batched until the
configured threshold is reached and the report cooldown has elapsed.

This is the command intended to be used in a cronjob. When another run
holds the deployment lock, the cycle is skipped and the exit code is 0.`,
	}
}

// Execute runs one automatic cycle.
func (it *AutoController) Execute(cmd *cobra.Command, _ []string) error {
	return runDeploy(cmd, it.command, entities.ModeAuto)
}
