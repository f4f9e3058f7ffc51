package controllers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

const defaultHistoryLimit = 20

// HistoryController handles the "history" subcommand.
type HistoryController struct {
	command commands.History
}

// NewHistoryController creates a new HistoryController.
func NewHistoryController(command commands.History) *HistoryController {
	return &HistoryController{command: command}
}

// GetBind returns the Cobra command metadata for the history controller.
func (it *HistoryController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "history",
		Short: "List past cycles and deployments",
		Long: `List past cycles, newest first. With history.database configured every
cycle is listed, including no-ops and skipped runs; otherwise the
deployments kept in the state file are shown.`,
	}
}

// Execute prints the ledger.
func (it *HistoryController) Execute(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	entries, err := it.command.Execute(commandContext(cmd), settings, commands.HistoryOptions{Limit: limit})
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No history yet")
		return nil
	}
	_, _ = fmt.Fprintln(out, renderTable(
		[]string{"When", "Mode", "Outcome", "Decision", "Duration", "Detail"},
		entryRows(entries),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		isTerminal(out),
	))
	return nil
}

// AddFlags adds the history-specific flags to the given Cobra command.
func (it *HistoryController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", defaultHistoryLimit, "Number of entries to show (0 for all)")
	cmd.Flags().Bool("json", false, "Print the entries as JSON")
}

func entryRows(entries []repositories.CycleEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		duration := ""
		detail := entry.Reason
		if record := entry.Record; record != nil {
			duration = record.Duration.Round(time.Second).String()
			if record.Commit != "" {
				detail = "commit " + shortCommit(record.Commit)
			}
			if record.Error != "" {
				detail = record.Error
			}
		}
		rows = append(rows, []string{
			entry.At.Local().Format(time.DateTime),
			string(entry.Mode),
			string(entry.Outcome),
			string(entry.Decision),
			duration,
			detail,
		})
	}
	return rows
}
