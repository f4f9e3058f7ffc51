package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// flagged is implemented by controllers that declare their own flags.
type flagged interface {
	AddFlags(cmd *cobra.Command)
}

func buildRootCommand(defaultController entities.Controller) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "sitedeploy",
		Short: "Change-driven deployment manager for a static report site",
		Long: `Watches the files of a static report site and decides when to regenerate
and publish it.

Homepage edits are published right away, changes to the generator code
trigger a full report regeneration, and report data changes are batched
until enough of them accumulate and the report cooldown has elapsed.

Usage modes:
  sitedeploy               Same as "sitedeploy auto" (for cron/launchd)
  sitedeploy homepage      Publish the homepage now
  sitedeploy reports       Regenerate and publish all reports now
  sitedeploy status        Show pending changes, deployments and the lock
  sitedeploy watch         Run automatic cycles continuously`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          defaultController.Execute,
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().Bool("dry-run", false,
		"Decide and report without deploying or writing state")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Args:  cobra.NoArgs,
			RunE: func(command *cobra.Command, arguments []string) error {
				return ctrl.Execute(command, arguments)
			},
		}

		// Add controller-specific flags
		if fc, ok := ctrl.(flagged); ok {
			fc.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	// Inject controllers via DIG
	appContext := injectAppContext()
	cobraRoot := buildRootCommand(appContext.GetDefaultController())
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Errorf("Error executing 'sitedeploy': %s", err)
		os.Exit(1)
	}
}
