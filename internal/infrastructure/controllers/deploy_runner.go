package controllers

import (
	"fmt"
	"io"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// runDeploy is the shared body of the auto, homepage and reports controllers.
func runDeploy(cmd *cobra.Command, command commands.Deploy, mode entities.Mode) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := command.Execute(ctx, settings, commands.DeployOptions{
		Mode:    mode,
		DryRun:  dryRun,
		Verbose: verbose,
	})
	if result != nil && dryRun {
		printPreview(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return fmt.Errorf("%s run failed: %w", mode, err)
	}
	if result != nil && result.Outcome == entities.CycleCompleted && result.Record != nil {
		logger.Infof("%s deployment completed in %s", result.Record.Kind, result.Duration.Round(time.Millisecond))
	}
	return nil
}

func printPreview(out io.Writer, result *entities.CycleResult) {
	cs := result.ChangeSet
	_, _ = fmt.Fprintf(out, "Mode:      %s (dry run)\n", result.Mode)
	_, _ = fmt.Fprintf(out, "Changes:   %d homepage, %d report data, %d code\n",
		cs.Count(entities.CategoryHomepage), cs.Count(entities.CategoryReportData), cs.Count(entities.CategoryCode))
	for _, change := range cs.Changes {
		marker := "M"
		switch {
		case change.Deleted():
			marker = "D"
		case change.Previous == "":
			marker = "A"
		}
		_, _ = fmt.Fprintf(out, "  %s %-11s %s\n", marker, change.Category, change.Path)
	}
	_, _ = fmt.Fprintf(out, "Decision:  %s\n", result.Verdict.Decision)
	_, _ = fmt.Fprintf(out, "Reason:    %s\n", result.Verdict.Reason)
	if result.Holder != nil {
		_, _ = fmt.Fprintf(out, "Lock:      held by %s (pid %d on %s)\n",
			result.Holder.Owner, result.Holder.PID, result.Holder.Hostname)
	}
}
