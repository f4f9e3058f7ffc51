package repositories

import (
	"path/filepath"
	"slices"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	domainRepos "github.com/rios0rios0/sitedeploy/internal/domain/repositories"
	actionsRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/actions"
	historyRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/history"
	lockRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/lock"
	metricsRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/metrics"
	publisherRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/publisher"
	stateRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/state"
	watcherRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/watcher"
	workspaceRepo "github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/workspace"
)

// FileBackendsFactory builds the file, process and git backed repositories
// described by the settings.
type FileBackendsFactory struct{}

// NewBackendsFactory creates a new FileBackendsFactory.
func NewBackendsFactory() *FileBackendsFactory {
	return &FileBackendsFactory{}
}

// Open wires one set of repositories for a command invocation. Nothing is
// created on disk until a repository is used.
func (f *FileBackendsFactory) Open(settings *entities.Settings) (*domainRepos.Backends, error) {
	var history domainRepos.HistoryRepository = historyRepo.NewNoopHistoryRepository()
	if settings.History.Database != "" {
		history = historyRepo.NewHistoryRepository(settings.History.Database)
	}

	internal := []string{
		filepath.Dir(settings.State.Path),
		filepath.Dir(settings.Lock.Path),
		settings.History.Database,
		settings.Metrics.Textfile,
	}

	return &domainRepos.Backends{
		State:     stateRepo.NewStateRepository(settings.State.Path),
		Lock:      lockRepo.NewLockRepository(settings.Lock.Path),
		Process:   lockRepo.NewProcessProbe(),
		Workspace: workspaceRepo.NewWorkspaceRepository(settings.Workspace, settings.Tracking.Include, settings.Tracking.Exclude),
		Actions:   actionsRepo.NewActionRepository(settings.Workspace, settings.Actions),
		Publisher: publisherRepo.NewPublisherRepository(settings.Workspace, settings.Publish, internal...),
		History:   history,
		Metrics:   metricsRepo.NewPrometheusRecorder(settings.Metrics.Textfile),
		Notifier:  watcherRepo.NewFSNotifyNotifier(settings.Workspace, internalDirNames(settings)...),
	}, nil
}

// internalDirNames lists the directories holding state and lock files, so the
// watcher does not wake up on its own writes.
func internalDirNames(settings *entities.Settings) []string {
	var names []string
	for _, p := range []string{settings.State.Path, settings.Lock.Path} {
		dir := filepath.Dir(p)
		if dir == settings.Workspace || slices.Contains(names, filepath.Base(dir)) {
			continue
		}
		names = append(names, filepath.Base(dir))
	}
	return names
}
