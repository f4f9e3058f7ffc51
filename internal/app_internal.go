package internal

import (
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/infrastructure/controllers"
)

// AppInternal holds everything the CLI entry point needs.
type AppInternal struct {
	controllers []entities.Controller
	auto        *controllers.AutoController
}

// NewAppInternal creates the application context.
func NewAppInternal(all *[]entities.Controller, auto *controllers.AutoController) *AppInternal {
	return &AppInternal{controllers: *all, auto: auto}
}

// GetControllers returns every subcommand controller.
func (it *AppInternal) GetControllers() []entities.Controller {
	return it.controllers
}

// GetDefaultController returns the controller run by the bare root command.
func (it *AppInternal) GetDefaultController() entities.Controller {
	return it.auto
}
