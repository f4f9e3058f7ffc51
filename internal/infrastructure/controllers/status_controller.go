package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

const defaultStatusHistory = 5

// StatusController handles the "status" subcommand.
type StatusController struct {
	command commands.Status
}

// NewStatusController creates a new StatusController.
func NewStatusController(command commands.Status) *StatusController {
	return &StatusController{command: command}
}

// GetBind returns the Cobra command metadata for the status controller.
func (it *StatusController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "status",
		Short: "Show pending changes, last deployments and the lock",
		Long: `Show the pending report change count, the time since each last
deployment, the remaining report cooldown, the deployment lock and the
most recent deployments. Never takes the lock and never writes state.`,
	}
}

// Execute prints the status report.
func (it *StatusController) Execute(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("history")

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	report, err := it.command.Execute(commandContext(cmd), settings, commands.StatusOptions{HistoryLimit: limit})
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, newStatusView(report))
	}
	printStatus(out, report, isTerminal(out))
	return nil
}

// AddFlags adds the status-specific flags to the given Cobra command.
func (it *StatusController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Print the status as JSON")
	cmd.Flags().Int("history", defaultStatusHistory, "Number of recent deployments to show")
}

func printStatus(out io.Writer, report *entities.StatusReport, fancy bool) {
	if report.StateWarning != "" {
		_, _ = fmt.Fprintf(out, "WARNING: %s\n\n", report.StateWarning)
	}

	changes := fmt.Sprintf("%d/%d", report.ChangeCount, report.ChangesThreshold)
	if needed := report.ChangesNeeded(); needed > 0 {
		changes += fmt.Sprintf(" (%d more needed)", needed)
	}
	cooldown := "ready"
	if report.ReportCooldownRemaining > 0 {
		cooldown = report.ReportCooldownRemaining.Round(time.Second).String() + " remaining"
	}

	rows := [][]string{
		{"Report changes", changes},
		{"Last homepage deploy", sinceLabel(report, entities.KindHomepage)},
		{"Last report deploy", sinceLabel(report, entities.KindReports)},
		{"Report cooldown", cooldown},
		{"Lock", lockLabel(report)},
		{"Tracked files", strconv.Itoa(report.TrackedFingerprints)},
	}
	if cycle := report.LastCycle; cycle != nil {
		rows = append(rows, []string{
			"Last cycle",
			fmt.Sprintf("%s %s: %s (%s)", cycle.Mode, cycle.Decision, cycle.Reason, ago(report.GeneratedAt, cycle.At)),
		})
	}
	_, _ = fmt.Fprintln(out, renderTable([]string{"Item", "Value"}, rows, nil, fancy))

	if len(report.History) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, renderTable(
		[]string{"When", "Kind", "Trigger", "Outcome", "Changes", "Duration", "Detail"},
		historyRows(report.History),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		fancy,
	))
}

func historyRows(records []entities.DeploymentRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		detail := record.Error
		if detail == "" {
			detail = "nothing to publish"
			if record.Commit != "" {
				detail = "commit " + shortCommit(record.Commit)
			}
		}
		rows = append(rows, []string{
			record.Timestamp.Local().Format(time.DateTime),
			string(record.Kind),
			string(record.Trigger),
			string(record.Outcome),
			strconv.Itoa(record.TriggeringChangeCount),
			record.Duration.Round(time.Second).String(),
			detail,
		})
	}
	return rows
}

func sinceLabel(report *entities.StatusReport, kind entities.DeploymentKind) string {
	elapsed, ok := report.SinceLastDeploy(kind)
	if !ok {
		return "never"
	}
	last := report.GeneratedAt.Add(-elapsed)
	return fmt.Sprintf("%.1f minutes ago (%s)", elapsed.Minutes(), last.Local().Format(time.DateTime))
}

func lockLabel(report *entities.StatusReport) string {
	lock := report.Lock
	if !lock.Held || lock.Info == nil {
		return "free"
	}
	label := fmt.Sprintf("held by %s run %s (pid %d on %s, %s)",
		lock.Info.Mode, lock.Info.Owner, lock.Info.PID, lock.Info.Hostname, ago(report.GeneratedAt, lock.Info.AcquiredAt))
	if lock.Stale {
		label += "; STALE: " + lock.StaleReason + ", clear with 'sitedeploy unlock --yes'"
	}
	return label
}

func ago(now, then time.Time) string {
	return now.Sub(then).Round(time.Second).String() + " ago"
}

func shortCommit(hash string) string {
	const short = 8
	if len(hash) > short {
		return hash[:short]
	}
	return hash
}

// statusView is the stable JSON shape of the status report.
type statusView struct {
	GeneratedAt             time.Time                   `json:"generated_at"`
	ChangeCount             int                         `json:"change_count"`
	ChangesThreshold        int                         `json:"changes_threshold"`
	ChangesNeeded           int                         `json:"changes_needed"`
	LastHomepageDeploy      *time.Time                  `json:"last_homepage_deploy"`
	LastReportDeploy        *time.Time                  `json:"last_report_deploy"`
	ReportCooldownRemaining float64                     `json:"report_cooldown_remaining_seconds"`
	Lock                    lockView                    `json:"lock"`
	LastCycle               *entities.CycleSummary      `json:"last_cycle,omitempty"`
	TrackedFiles            int                         `json:"tracked_files"`
	History                 []entities.DeploymentRecord `json:"history"`
	Warning                 string                      `json:"warning,omitempty"`
}

type lockView struct {
	Held        bool               `json:"held"`
	Stale       bool               `json:"stale"`
	StaleReason string             `json:"stale_reason,omitempty"`
	Holder      *entities.LockInfo `json:"holder,omitempty"`
}

func newStatusView(report *entities.StatusReport) statusView {
	return statusView{
		GeneratedAt:             report.GeneratedAt,
		ChangeCount:             report.ChangeCount,
		ChangesThreshold:        report.ChangesThreshold,
		ChangesNeeded:           report.ChangesNeeded(),
		LastHomepageDeploy:      report.LastHomepageDeploy,
		LastReportDeploy:        report.LastReportDeploy,
		ReportCooldownRemaining: report.ReportCooldownRemaining.Seconds(),
		Lock: lockView{
			Held:        report.Lock.Held,
			Stale:       report.Lock.Stale,
			StaleReason: report.Lock.StaleReason,
			Holder:      report.Lock.Info,
		},
		LastCycle:    report.LastCycle,
		TrackedFiles: report.TrackedFingerprints,
		History:      report.History,
		Warning:      report.StateWarning,
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
