package entities

import (
	"sort"
	"time"
)

// DefaultHistoryLimit bounds the history kept inside the state file.
const DefaultHistoryLimit = 50

// CycleSummary captures the most recent decision, including no-ops and skips.
type CycleSummary struct {
	At       time.Time `json:"at"`
	Mode     Mode      `json:"mode"`
	Decision Decision  `json:"decision"`
	Reason   string    `json:"reason"`
}

// DeploymentState is the durable record of what has been observed and deployed.
// It is owned by a single cycle at a time and passed explicitly.
type DeploymentState struct {
	ChangeCount        int                `json:"change_count"`
	FileFingerprints   map[string]string  `json:"file_fingerprints"`
	LastHomepageDeploy *time.Time         `json:"last_homepage_deploy"`
	LastReportDeploy   *time.Time         `json:"last_report_deploy"`
	LastCycle          *CycleSummary      `json:"last_cycle,omitempty"`
	History            []DeploymentRecord `json:"history"`
}

// NewDeploymentState returns the first-run state.
func NewDeploymentState() *DeploymentState {
	return &DeploymentState{
		FileFingerprints: make(map[string]string),
		History:          []DeploymentRecord{},
	}
}

// Normalize repairs nil collections and negative counters after decoding.
func (s *DeploymentState) Normalize() {
	if s.FileFingerprints == nil {
		s.FileFingerprints = make(map[string]string)
	}
	if s.History == nil {
		s.History = []DeploymentRecord{}
	}
	if s.ChangeCount < 0 {
		s.ChangeCount = 0
	}
}

// Clone returns a deep copy, so a failed cycle can be discarded wholesale.
func (s *DeploymentState) Clone() *DeploymentState {
	out := &DeploymentState{
		ChangeCount:      s.ChangeCount,
		FileFingerprints: make(map[string]string, len(s.FileFingerprints)),
		History:          make([]DeploymentRecord, len(s.History)),
	}
	for k, v := range s.FileFingerprints {
		out.FileFingerprints[k] = v
	}
	copy(out.History, s.History)
	out.LastHomepageDeploy = cloneTime(s.LastHomepageDeploy)
	out.LastReportDeploy = cloneTime(s.LastReportDeploy)
	if s.LastCycle != nil {
		summary := *s.LastCycle
		out.LastCycle = &summary
	}
	return out
}

// LastDeploy returns the last successful deployment time of the kind.
func (s *DeploymentState) LastDeploy(kind DeploymentKind) *time.Time {
	if kind == KindHomepage {
		return s.LastHomepageDeploy
	}
	return s.LastReportDeploy
}

// MarkDeployed records a successful deployment of the kind at now.
// A reports deployment also clears the accumulated change count.
func (s *DeploymentState) MarkDeployed(kind DeploymentKind, now time.Time) {
	at := now
	switch kind {
	case KindHomepage:
		s.LastHomepageDeploy = &at
	case KindReports:
		s.LastReportDeploy = &at
		s.ChangeCount = 0
	}
}

// Accumulate adds report changes towards the batching threshold.
func (s *DeploymentState) Accumulate(n int) {
	if n > 0 {
		s.ChangeCount += n
	}
}

// Consume advances the stored fingerprints to the values observed in the change set.
func (s *DeploymentState) Consume(cs ChangeSet) {
	for _, c := range cs.Changes {
		s.SetFingerprint(c.Path, c.Fingerprint)
	}
}

// SetFingerprint stores a fingerprint; an empty value forgets the path.
func (s *DeploymentState) SetFingerprint(path, fingerprint string) {
	if fingerprint == "" {
		delete(s.FileFingerprints, path)
		return
	}
	s.FileFingerprints[path] = fingerprint
}

// AppendRecord appends to the history and drops the oldest entries beyond limit.
func (s *DeploymentState) AppendRecord(record DeploymentRecord, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.History = append(s.History, record)
	if overflow := len(s.History) - limit; overflow > 0 {
		s.History = append([]DeploymentRecord{}, s.History[overflow:]...)
	}
}

// RecentHistory returns up to n records, newest first.
func (s *DeploymentState) RecentHistory(n int) []DeploymentRecord {
	out := make([]DeploymentRecord, len(s.History))
	copy(out, s.History)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
