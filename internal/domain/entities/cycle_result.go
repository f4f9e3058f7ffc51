package entities

import "time"

// CycleOutcome classifies how a decide-execute cycle ended.
type CycleOutcome string

const (
	// CycleCompleted means a deployment ran and succeeded.
	CycleCompleted CycleOutcome = "completed"
	// CycleNoop means the policy decided not to deploy.
	CycleNoop CycleOutcome = "noop"
	// CycleSkipped means another run held the lock; nothing was touched.
	CycleSkipped CycleOutcome = "skipped"
	// CycleFailed means a deployment ran and failed.
	CycleFailed CycleOutcome = "failed"
)

// CycleResult summarizes one run of the deployment manager.
type CycleResult struct {
	Mode      Mode
	Verdict   Verdict
	Outcome   CycleOutcome
	ChangeSet ChangeSet
	Record    *DeploymentRecord
	Holder    *LockInfo
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration
}

// StatusReport is the read-only view served by the status command.
type StatusReport struct {
	GeneratedAt             time.Time
	ChangeCount             int
	ChangesThreshold        int
	LastHomepageDeploy      *time.Time
	LastReportDeploy        *time.Time
	ReportCooldownRemaining time.Duration
	Lock                    LockStatus
	LastCycle               *CycleSummary
	History                 []DeploymentRecord
	TrackedFingerprints     int
	StateWarning            string
}

// SinceLastDeploy returns the elapsed time since the last deployment of the kind.
func (r StatusReport) SinceLastDeploy(kind DeploymentKind) (time.Duration, bool) {
	last := r.LastReportDeploy
	if kind == KindHomepage {
		last = r.LastHomepageDeploy
	}
	if last == nil {
		return 0, false
	}
	return r.GeneratedAt.Sub(*last), true
}

// ChangesNeeded returns how many more report changes trigger a batched deployment.
func (r StatusReport) ChangesNeeded() int {
	return max(r.ChangesThreshold-r.ChangeCount, 0)
}
