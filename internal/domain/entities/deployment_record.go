package entities

import "time"

// DeploymentKind names what a deployment regenerates and publishes.
type DeploymentKind string

const (
	KindHomepage DeploymentKind = "homepage"
	KindReports  DeploymentKind = "reports"
	// KindUnknown marks a record whose deployment kind was never decided,
	// such as an automatic run that died while holding the lock.
	KindUnknown DeploymentKind = "unknown"
)

// KindForMode returns the deployment kind a forced mode always performs.
// Automatic runs decide their kind per cycle, so they map to KindUnknown.
func KindForMode(mode Mode) DeploymentKind {
	switch mode {
	case ModeHomepage:
		return KindHomepage
	case ModeReports:
		return KindReports
	default:
		return KindUnknown
	}
}

// Trigger tells whether a deployment came from policy or from an operator.
type Trigger string

const (
	TriggerAuto   Trigger = "auto"
	TriggerForced Trigger = "forced"
)

// Outcome is the terminal result of a deployment attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// DeploymentRecord is one entry of the deployment history.
type DeploymentRecord struct {
	Kind                  DeploymentKind `json:"kind"`
	Trigger               Trigger        `json:"trigger"`
	Timestamp             time.Time      `json:"timestamp"`
	Outcome               Outcome        `json:"outcome"`
	TriggeringChangeCount int            `json:"triggering_change_count"`
	Duration              time.Duration  `json:"duration"`
	Error                 string         `json:"error,omitempty"`
	Published             bool           `json:"published"`
	Commit                string         `json:"commit,omitempty"`
}

// Succeeded reports whether the deployment finished successfully.
func (r DeploymentRecord) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}
