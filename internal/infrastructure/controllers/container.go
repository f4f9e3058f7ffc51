package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	for _, constructor := range []any{
		NewAutoController,
		NewHomepageController,
		NewReportsController,
		NewStatusController,
		NewUnlockController,
		NewWatchController,
		NewHistoryController,
		NewControllers,
	} {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	autoController *AutoController,
	homepageController *HomepageController,
	reportsController *ReportsController,
	statusController *StatusController,
	unlockController *UnlockController,
	watchController *WatchController,
	historyController *HistoryController,
) *[]entities.Controller {
	return &[]entities.Controller{
		autoController,
		homepageController,
		reportsController,
		statusController,
		unlockController,
		watchController,
		historyController,
	}
}
