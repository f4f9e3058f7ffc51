package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(NewBackendsFactory); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *FileBackendsFactory) domainRepos.BackendsFactory {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
