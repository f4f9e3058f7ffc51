package repositories

import (
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// Backends is the set of repositories a cycle runs against.
type Backends struct {
	State     StateRepository
	Lock      LockRepository
	Process   ProcessRepository
	Workspace WorkspaceRepository
	Actions   ActionRepository
	Publisher PublisherRepository
	History   HistoryRepository
	Metrics   MetricsRepository
	Notifier  NotifierRepository
}

// BackendsFactory opens the repositories configured by the settings.
type BackendsFactory interface {
	Open(settings *entities.Settings) (*Backends, error)
}

// Close releases resources held by the backends.
func (b *Backends) Close() error {
	if b.History != nil {
		return b.History.Close()
	}
	return nil
}
