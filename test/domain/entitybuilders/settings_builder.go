//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"path/filepath"
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// SettingsBuilder helps create settings with a fluent interface.
type SettingsBuilder struct {
	*testkit.BaseBuilder
	workspace string
	policy    entities.Policy
	stale     time.Duration
	history   int
	database  string
	watch     entities.WatchSettings
	listen    string
}

// NewSettingsBuilder creates a builder with the stock defaults.
func NewSettingsBuilder() *SettingsBuilder {
	defaults := entities.DefaultSettings()
	return &SettingsBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		workspace:   "/srv/site",
		policy:      entities.DefaultPolicy(),
		stale:       entities.DefaultLockStaleAfter,
		history:     entities.DefaultHistoryLimit,
		watch:       defaults.Watch,
	}
}

// WithWorkspace sets the workspace directory.
func (b *SettingsBuilder) WithWorkspace(dir string) *SettingsBuilder {
	b.workspace = dir
	return b
}

// WithThreshold sets the report change threshold.
func (b *SettingsBuilder) WithThreshold(threshold int) *SettingsBuilder {
	b.policy.ChangesThreshold = threshold
	return b
}

// WithReportCooldown sets the report cooldown.
func (b *SettingsBuilder) WithReportCooldown(cooldown time.Duration) *SettingsBuilder {
	b.policy.ReportCooldown = cooldown
	return b
}

// WithHomepageCooldown sets the homepage cooldown.
func (b *SettingsBuilder) WithHomepageCooldown(cooldown time.Duration) *SettingsBuilder {
	b.policy.HomepageCooldown = cooldown
	return b
}

// WithCodeBypass sets whether code changes bypass the report cooldown.
func (b *SettingsBuilder) WithCodeBypass(bypass bool) *SettingsBuilder {
	b.policy.CodeChangeBypassesCooldown = bypass
	return b
}

// WithStaleAfter sets the lock stale threshold.
func (b *SettingsBuilder) WithStaleAfter(staleAfter time.Duration) *SettingsBuilder {
	b.stale = staleAfter
	return b
}

// WithHistoryLimit sets the bounded history size.
func (b *SettingsBuilder) WithHistoryLimit(limit int) *SettingsBuilder {
	b.history = limit
	return b
}

// WithHistoryDatabase sets the ledger database path.
func (b *SettingsBuilder) WithHistoryDatabase(path string) *SettingsBuilder {
	b.database = path
	return b
}

// WithWatch sets the daemon settings.
func (b *SettingsBuilder) WithWatch(watch entities.WatchSettings) *SettingsBuilder {
	b.watch = watch
	return b
}

// WithMetricsListen sets the metrics listen address.
func (b *SettingsBuilder) WithMetricsListen(addr string) *SettingsBuilder {
	b.listen = addr
	return b
}

// Build creates the settings (satisfies testkit.Builder interface).
func (b *SettingsBuilder) Build() interface{} {
	return b.BuildSettings()
}

// BuildSettings creates the settings with a concrete return type.
func (b *SettingsBuilder) BuildSettings() *entities.Settings {
	settings := entities.DefaultSettings()
	settings.Workspace = b.workspace
	settings.State.Path = filepath.Join(b.workspace, ".sitedeploy", "state.json")
	settings.State.HistoryLimit = b.history
	settings.Lock.Path = filepath.Join(b.workspace, ".sitedeploy", "deploy.lock")
	settings.Lock.StaleAfter = b.stale
	settings.Policy = b.policy
	settings.History.Database = b.database
	settings.Watch = b.watch
	settings.Metrics.Listen = b.listen
	return settings
}

// Reset clears the builder state, allowing it to be reused.
func (b *SettingsBuilder) Reset() testkit.Builder {
	fresh := NewSettingsBuilder()
	b.BaseBuilder.Reset()
	b.workspace = fresh.workspace
	b.policy = fresh.policy
	b.stale = fresh.stale
	b.history = fresh.history
	b.database = ""
	b.watch = fresh.watch
	b.listen = ""
	return b
}

// Clone creates a deep copy of the SettingsBuilder.
func (b *SettingsBuilder) Clone() testkit.Builder {
	return &SettingsBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		workspace:   b.workspace,
		policy:      b.policy,
		stale:       b.stale,
		history:     b.history,
		database:    b.database,
		watch:       b.watch,
		listen:      b.listen,
	}
}
