//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// DeploymentStateBuilder helps create deployment states with a fluent interface.
type DeploymentStateBuilder struct {
	*testkit.BaseBuilder
	changeCount  int
	fingerprints map[string]string
	lastHomepage *time.Time
	lastReport   *time.Time
	history      []entities.DeploymentRecord
}

// NewDeploymentStateBuilder creates a builder for a first-run state.
func NewDeploymentStateBuilder() *DeploymentStateBuilder {
	return &DeploymentStateBuilder{
		BaseBuilder:  testkit.NewBaseBuilder(),
		fingerprints: map[string]string{},
	}
}

// WithChangeCount sets the accumulated report change count.
func (b *DeploymentStateBuilder) WithChangeCount(count int) *DeploymentStateBuilder {
	b.changeCount = count
	return b
}

// WithFingerprint records a fingerprint for a path.
func (b *DeploymentStateBuilder) WithFingerprint(path, fingerprint string) *DeploymentStateBuilder {
	b.fingerprints[path] = fingerprint
	return b
}

// WithFingerprints records several fingerprints at once.
func (b *DeploymentStateBuilder) WithFingerprints(fingerprints map[string]string) *DeploymentStateBuilder {
	for k, v := range fingerprints {
		b.fingerprints[k] = v
	}
	return b
}

// WithLastHomepageDeploy sets the last homepage deployment time.
func (b *DeploymentStateBuilder) WithLastHomepageDeploy(at time.Time) *DeploymentStateBuilder {
	b.lastHomepage = &at
	return b
}

// WithLastReportDeploy sets the last report deployment time.
func (b *DeploymentStateBuilder) WithLastReportDeploy(at time.Time) *DeploymentStateBuilder {
	b.lastReport = &at
	return b
}

// WithRecord appends a history record.
func (b *DeploymentStateBuilder) WithRecord(record entities.DeploymentRecord) *DeploymentStateBuilder {
	b.history = append(b.history, record)
	return b
}

// Build creates the state (satisfies testkit.Builder interface).
func (b *DeploymentStateBuilder) Build() interface{} {
	return b.BuildState()
}

// BuildState creates the state with a concrete return type.
func (b *DeploymentStateBuilder) BuildState() *entities.DeploymentState {
	state := entities.NewDeploymentState()
	state.ChangeCount = b.changeCount
	for k, v := range b.fingerprints {
		state.FileFingerprints[k] = v
	}
	state.LastHomepageDeploy = b.lastHomepage
	state.LastReportDeploy = b.lastReport
	state.History = append(state.History, b.history...)
	return state
}

// Reset clears the builder state, allowing it to be reused.
func (b *DeploymentStateBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.changeCount = 0
	b.fingerprints = map[string]string{}
	b.lastHomepage = nil
	b.lastReport = nil
	b.history = nil
	return b
}

// Clone creates a deep copy of the DeploymentStateBuilder.
func (b *DeploymentStateBuilder) Clone() testkit.Builder {
	fingerprints := make(map[string]string, len(b.fingerprints))
	for k, v := range b.fingerprints {
		fingerprints[k] = v
	}
	return &DeploymentStateBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		changeCount:  b.changeCount,
		fingerprints: fingerprints,
		lastHomepage: b.lastHomepage,
		lastReport:   b.lastReport,
		history:      append([]entities.DeploymentRecord(nil), b.history...),
	}
}
