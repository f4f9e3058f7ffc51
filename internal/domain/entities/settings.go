package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration for sitedeploy.
type Settings struct {
	Workspace string           `yaml:"workspace"`
	Log       LogSettings      `yaml:"log"`
	State     StateSettings    `yaml:"state"`
	Lock      LockSettings     `yaml:"lock"`
	Tracking  TrackingSettings `yaml:"tracking"`
	Policy    Policy           `yaml:"policy"`
	Actions   ActionSettings   `yaml:"actions"`
	Publish   PublishSettings  `yaml:"publish"`
	Watch     WatchSettings    `yaml:"watch"`
	Metrics   MetricsSettings  `yaml:"metrics"`
	History   HistorySettings  `yaml:"history"`
}

// LogSettings configures the logrus output.
type LogSettings struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// StateSettings locates the persisted deployment state.
type StateSettings struct {
	Path         string `yaml:"path"`
	HistoryLimit int    `yaml:"history_limit"`
}

// LockSettings locates the lock marker and sets the stale threshold.
type LockSettings struct {
	Path       string        `yaml:"path"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

// TrackingSettings describes the tracked file set and how it is classified.
type TrackingSettings struct {
	HomepagePath string   `yaml:"homepage_path"`
	ReportPath   string   `yaml:"report_path"`
	Include      []string `yaml:"include"` // doublestar globs, relative to the workspace
	Exclude      []string `yaml:"exclude"`
}

// ActionStep is a single external command of a deployment.
type ActionStep struct {
	Run      string `yaml:"run"`
	Optional bool   `yaml:"optional"` // failures are logged and the deployment continues
}

// ActionSettings lists the regeneration steps per deployment kind.
type ActionSettings struct {
	Timeout  time.Duration `yaml:"timeout"`
	Homepage []ActionStep  `yaml:"homepage"`
	Reports  []ActionStep  `yaml:"reports"`
}

// StepsFor returns the configured steps of a deployment kind.
func (a ActionSettings) StepsFor(kind DeploymentKind) []ActionStep {
	if kind == KindHomepage {
		return a.Homepage
	}
	return a.Reports
}

// AuthorSettings is the commit signature used when publishing.
type AuthorSettings struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// PublishSettings configures the commit and push that follows regeneration.
type PublishSettings struct {
	Enabled       bool           `yaml:"enabled"`
	Remote        string         `yaml:"remote"`
	Branch        string         `yaml:"branch"`
	Token         string         `yaml:"token"` // Inline, ${ENV_VAR}, or file path
	Timeout       time.Duration  `yaml:"timeout"`
	Author        AuthorSettings `yaml:"author"`
	HomepagePaths []string       `yaml:"homepage_paths"`
	ReportsPaths  []string       `yaml:"reports_paths"`
}

// PathsFor returns the paths staged for a deployment kind.
func (p PublishSettings) PathsFor(kind DeploymentKind) []string {
	if kind == KindHomepage {
		return p.HomepagePaths
	}
	return p.ReportsPaths
}

// WatchSettings configures the long-running daemon mode.
type WatchSettings struct {
	Interval         time.Duration `yaml:"interval"`
	Debounce         time.Duration `yaml:"debounce"`
	FilesystemEvents bool          `yaml:"filesystem_events"`
}

// MetricsSettings configures Prometheus exposition.
type MetricsSettings struct {
	Textfile string `yaml:"textfile"` // written after every one-shot cycle
	Listen   string `yaml:"listen"`   // served by the watch daemon
}

// HistorySettings configures the unbounded deployment ledger.
type HistorySettings struct {
	Database string `yaml:"database"` // SQLite path; empty disables the ledger
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings returns the configuration used when no file overrides a value.
func DefaultSettings() *Settings {
	return &Settings{
		Workspace: ".",
		Log:       LogSettings{Level: "info", Format: "text"},
		State:     StateSettings{Path: ".sitedeploy/state.json", HistoryLimit: DefaultHistoryLimit},
		Lock:      LockSettings{Path: ".sitedeploy/deploy.lock", StaleAfter: DefaultLockStaleAfter},
		Tracking: TrackingSettings{
			HomepagePath: "building_reports/index.html",
			ReportPath:   "building_reports",
			Include:      []string{"building_reports/**/*.html", "*.py", "*.sh"},
			Exclude:      []string{".sitedeploy/**", ".git/**"},
		},
		Policy: DefaultPolicy(),
		Actions: ActionSettings{
			Timeout: 30 * time.Minute, //nolint:mnd // full regeneration is slow
			Homepage: []ActionStep{
				{Run: "python3 generate_homepage_only.py", Optional: true},
				{Run: "python3 add_cache_busting.py", Optional: true},
			},
			Reports: []ActionStep{{Run: "bash deploy_reports.sh"}},
		},
		Publish: PublishSettings{
			Enabled:       true,
			Remote:        "origin",
			Branch:        "main",
			Timeout:       5 * time.Minute, //nolint:mnd // push budget
			Author:        AuthorSettings{Name: "sitedeploy", Email: "sitedeploy@localhost"},
			HomepagePaths: []string{"building_reports/index.html"},
			ReportsPaths:  []string{"."},
		},
		Watch: WatchSettings{
			Interval:         30 * time.Second, //nolint:mnd // polling cadence of the watcher
			Debounce:         2 * time.Second,  //nolint:mnd // quiet window for bursts of writes
			FilesystemEvents: true,
		},
	}
}

// NewSettings reads and parses a configuration file on top of the defaults,
// loads the workspace .env file, resolves the publish token and validates the result.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	settings := DefaultSettings()
	if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	absConfig, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}
	if finalizeErr := settings.finalize(filepath.Dir(absConfig)); finalizeErr != nil {
		return nil, finalizeErr
	}
	return settings, nil
}

// NewDefaultSettings returns validated defaults rooted at the given directory.
func NewDefaultSettings(baseDir string) (*Settings, error) {
	settings := DefaultSettings()
	if err := settings.finalize(baseDir); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Settings) finalize(baseDir string) error {
	if err := s.normalize(baseDir); err != nil {
		return err
	}
	loadDotEnv(s.Workspace)
	s.Publish.Token = resolveToken(s.Publish.Token)
	return validate(s)
}

// normalize turns every configured path into an absolute one. The workspace
// is relative to the config file; state, lock, history and metrics paths are
// relative to the workspace.
func (s *Settings) normalize(baseDir string) error {
	workspace, err := absPath(baseDir, s.Workspace)
	if err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}
	s.Workspace = workspace

	for _, p := range []*string{&s.State.Path, &s.Lock.Path, &s.History.Database, &s.Metrics.Textfile} {
		if *p == "" {
			continue
		}
		resolved, resolveErr := absPath(workspace, *p)
		if resolveErr != nil {
			return fmt.Errorf("invalid path %q: %w", *p, resolveErr)
		}
		*p = resolved
	}

	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))
	return nil
}

func absPath(base, p string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(p))
	if err != nil {
		return "", err
	}
	if expanded == "" {
		expanded = "."
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}

// loadDotEnv exports the workspace .env file without overriding variables
// already present in the environment.
func loadDotEnv(workspace string) {
	envFile := filepath.Join(workspace, ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warnf("Failed to load %q: %v", envFile, err)
		return
	}
	logger.Debugf("Loaded environment from %q", envFile)
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".sitedeploy.yaml",
		".sitedeploy.yml",
		"sitedeploy.yaml",
		"sitedeploy.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if resolved == "" {
		return resolved
	}
	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(s *Settings) error {
	var problems []string

	if s.Policy.ChangesThreshold < 1 {
		problems = append(problems, "policy.changes_threshold must be at least 1")
	}
	if s.Policy.HomepageCooldown < 0 || s.Policy.ReportCooldown < 0 {
		problems = append(problems, "policy cooldowns must not be negative")
	}
	if s.State.Path == "" {
		problems = append(problems, "state.path is required")
	}
	if s.State.HistoryLimit < 1 {
		problems = append(problems, "state.history_limit must be at least 1")
	}
	if s.Lock.Path == "" {
		problems = append(problems, "lock.path is required")
	}
	if s.Lock.StaleAfter <= 0 {
		problems = append(problems, "lock.stale_after must be positive")
	}
	if len(s.Tracking.Include) == 0 {
		problems = append(problems, "tracking.include needs at least one pattern")
	}
	if strings.TrimSpace(s.Tracking.HomepagePath) == "" {
		problems = append(problems, "tracking.homepage_path is required")
	}
	if strings.TrimSpace(s.Tracking.ReportPath) == "" {
		problems = append(problems, "tracking.report_path is required")
	}
	if s.Actions.Timeout <= 0 {
		problems = append(problems, "actions.timeout must be positive")
	}
	for kind, steps := range map[DeploymentKind][]ActionStep{KindHomepage: s.Actions.Homepage, KindReports: s.Actions.Reports} {
		for i, step := range steps {
			if strings.TrimSpace(step.Run) == "" {
				problems = append(problems, fmt.Sprintf("actions.%s[%d].run is required", kind, i))
			}
		}
	}
	if s.Publish.Enabled {
		if s.Publish.Remote == "" || s.Publish.Branch == "" {
			problems = append(problems, "publish.remote and publish.branch are required when publishing is enabled")
		}
		if s.Publish.Timeout <= 0 {
			problems = append(problems, "publish.timeout must be positive")
		}
	}
	if s.Watch.Interval <= 0 {
		problems = append(problems, "watch.interval must be positive")
	}
	switch s.Log.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not supported (text, json)", s.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
