package controllers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// loadSettings resolves the configuration for a command: the --config flag,
// then the standard locations, then the defaults rooted at the working directory.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return nil, fmt.Errorf("failed to resolve working directory: %w", cwdErr)
			}
			logger.Debugf("No config file found (%v), using defaults in %s", err, cwd)
			settings, defaultsErr := entities.NewDefaultSettings(cwd)
			if defaultsErr != nil {
				return nil, defaultsErr
			}
			applyLogSettings(settings, verbose)
			return settings, nil
		}
		configPath = found
	}

	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyLogSettings(settings, verbose)
	logger.Debugf("Using config file: %s", configPath)
	return settings, nil
}

// applyLogSettings configures logrus from the settings. --verbose and
// DEBUG=true always win over the configured level.
func applyLogSettings(settings *entities.Settings, verbose bool) {
	if settings.Log.Format == "json" {
		//nolint:exhaustruct // Minimal JSONFormatter initialization with required fields only
		logger.SetFormatter(&logger.JSONFormatter{})
	}
	if level, err := logger.ParseLevel(settings.Log.Level); err == nil {
		logger.SetLevel(level)
	} else if settings.Log.Level != "" {
		logger.Warnf("Unknown log level %q, keeping %s", settings.Log.Level, logger.GetLevel())
	}
	if verbose || os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
