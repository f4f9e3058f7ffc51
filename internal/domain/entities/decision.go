package entities

import (
	"fmt"
	"time"
)

// Mode selects how a cycle reaches its decision.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeHomepage Mode = "homepage"
	ModeReports  Mode = "reports"
)

// Forced reports whether the mode bypasses the batching policy.
func (m Mode) Forced() bool {
	return m == ModeHomepage || m == ModeReports
}

// Trigger returns the record trigger for deployments started in this mode.
func (m Mode) Trigger() Trigger {
	if m.Forced() {
		return TriggerForced
	}
	return TriggerAuto
}

// Decision is the output of policy evaluation.
type Decision string

const (
	DecisionNone           Decision = "none"
	DecisionDeployHomepage Decision = "deploy-homepage"
	DecisionDeployReports  Decision = "deploy-reports"
)

// Kind maps a deploying decision to its deployment kind.
func (d Decision) Kind() (DeploymentKind, bool) {
	switch d {
	case DecisionDeployHomepage:
		return KindHomepage, true
	case DecisionDeployReports:
		return KindReports, true
	default:
		return "", false
	}
}

// Policy holds the batching and rate-limiting knobs.
type Policy struct {
	ChangesThreshold           int           `yaml:"changes_threshold"`
	HomepageCooldown           time.Duration `yaml:"homepage_cooldown"`
	ReportCooldown             time.Duration `yaml:"report_cooldown"`
	CodeChangeBypassesCooldown bool          `yaml:"code_change_bypasses_cooldown"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ChangesThreshold:           5, //nolint:mnd // default batch size
		HomepageCooldown:           0,
		ReportCooldown:             5 * time.Minute, //nolint:mnd // default report rate limit
		CodeChangeBypassesCooldown: true,
	}
}

// Verdict is a decision together with the numbers that produced it.
type Verdict struct {
	Decision Decision
	Reason   string
	// ReportChanges is the number of distinct report-data files in the change set.
	ReportChanges int
	// ProjectedCount is the change count after accumulating ReportChanges.
	ProjectedCount int
}

// Decide evaluates the policy for one detection pass. It does not mutate the state.
func Decide(cs ChangeSet, state *DeploymentState, policy Policy, now time.Time) Verdict {
	reportChanges := cs.Count(CategoryReportData)
	verdict := Verdict{
		Decision:       DecisionNone,
		ReportChanges:  reportChanges,
		ProjectedCount: state.ChangeCount + reportChanges,
	}

	reportWait := RemainingCooldown(state.LastReportDeploy, policy.ReportCooldown, now)

	if codeChanges := cs.Count(CategoryCode); codeChanges > 0 {
		if policy.CodeChangeBypassesCooldown || reportWait == 0 {
			verdict.Decision = DecisionDeployReports
			verdict.Reason = fmt.Sprintf("%d code file(s) changed", codeChanges)
			return verdict
		}
		verdict.Reason = fmt.Sprintf("code changed but report cooldown has %s remaining", reportWait.Round(time.Second))
	}

	if homepageChanges := cs.Count(CategoryHomepage); homepageChanges > 0 {
		wait := RemainingCooldown(state.LastHomepageDeploy, policy.HomepageCooldown, now)
		if wait == 0 {
			verdict.Decision = DecisionDeployHomepage
			verdict.Reason = "homepage changed"
			return verdict
		}
		verdict.Reason = fmt.Sprintf("homepage changed but cooldown has %s remaining", wait.Round(time.Second))
		return verdict
	}

	if verdict.Reason != "" {
		return verdict
	}

	if reportChanges == 0 {
		verdict.Reason = "no changes detected"
		return verdict
	}

	threshold := max(policy.ChangesThreshold, 1)
	if verdict.ProjectedCount < threshold {
		verdict.Reason = fmt.Sprintf(
			"%d more change(s) needed before report regeneration", threshold-verdict.ProjectedCount,
		)
		return verdict
	}
	if reportWait > 0 {
		verdict.Reason = fmt.Sprintf("report threshold reached but cooldown has %s remaining", reportWait.Round(time.Second))
		return verdict
	}

	verdict.Decision = DecisionDeployReports
	verdict.Reason = fmt.Sprintf("%d accumulated change(s) reached threshold %d", verdict.ProjectedCount, threshold)
	return verdict
}

// DecideForced returns the operator-requested decision, ignoring thresholds and cooldowns.
func DecideForced(mode Mode, cs ChangeSet, state *DeploymentState) Verdict {
	reportChanges := cs.Count(CategoryReportData)
	verdict := Verdict{ReportChanges: reportChanges, ProjectedCount: state.ChangeCount + reportChanges}
	switch mode {
	case ModeHomepage:
		verdict.Decision = DecisionDeployHomepage
		verdict.Reason = "forced homepage deployment"
	case ModeReports:
		verdict.Decision = DecisionDeployReports
		verdict.Reason = "forced report deployment"
	default:
		verdict.Decision = DecisionNone
		verdict.Reason = fmt.Sprintf("mode %q is not a forced mode", mode)
	}
	return verdict
}

// RemainingCooldown returns how long until a deployment last done at last may run again.
// An absent timestamp means the cooldown is satisfied.
func RemainingCooldown(last *time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if last == nil || cooldown <= 0 {
		return 0
	}
	elapsed := now.Sub(*last)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
