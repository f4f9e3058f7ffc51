package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// Watch is the interface for the long-running daemon mode.
type Watch interface {
	Execute(ctx context.Context, settings *entities.Settings, opts WatchOptions) error
}

// WatchOptions holds runtime options for the watch daemon.
type WatchOptions struct {
	Verbose bool
}

// WatchCommand runs the auto cycle on an interval and, when enabled, shortly
// after tracked files change on disk. Cycles never overlap inside the daemon,
// and the deployment lock still serializes it against one-shot runs.
type WatchCommand struct {
	factory repositories.BackendsFactory
	clock   func() time.Time
}

// NewWatchCommand creates a new WatchCommand.
func NewWatchCommand(factory repositories.BackendsFactory) *WatchCommand {
	return &WatchCommand{factory: factory, clock: time.Now}
}

// Execute blocks until ctx is done.
func (it *WatchCommand) Execute(ctx context.Context, settings *entities.Settings, opts WatchOptions) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	backends, err := it.factory.Open(settings)
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	defer func() {
		if closeErr := backends.Close(); closeErr != nil {
			logger.Warnf("Failed to close backends: %v", closeErr)
		}
	}()

	triggers := make(chan string, 1)
	request := func(reason string) {
		select {
		case triggers <- reason:
		default: // a cycle is already pending
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if _, err = scheduler.NewJob(
		gocron.DurationJob(settings.Watch.Interval),
		gocron.NewTask(request, "interval"),
		gocron.WithName("sitedeploy-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to schedule polling job: %w", err)
	}
	scheduler.Start()
	defer func() {
		if shutdownErr := scheduler.Shutdown(); shutdownErr != nil {
			logger.Warnf("Failed to stop scheduler: %v", shutdownErr)
		}
	}()

	if settings.Watch.FilesystemEvents {
		events, watchErr := backends.Notifier.Watch(ctx, []string{settings.Workspace})
		if watchErr != nil {
			logger.Warnf("Filesystem events unavailable, polling only: %v", watchErr)
		} else {
			go debounce(ctx, events, backends.Workspace, settings.Watch.Debounce, request)
		}
	}

	if settings.Metrics.Listen != "" {
		go func() {
			if serveErr := backends.Metrics.Serve(ctx, settings.Metrics.Listen); serveErr != nil {
				logger.Errorf("Metrics endpoint stopped: %v", serveErr)
			}
		}()
	}

	logger.Infof("Watching %s (every %s, filesystem events: %t)",
		settings.Workspace, settings.Watch.Interval, settings.Watch.FilesystemEvents)

	runner := &cycleRunner{settings: settings, backends: backends, clock: it.clock}
	request("startup")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return nil
		case reason := <-triggers:
			logger.Debugf("Starting cycle (%s)", reason)
			it.cycle(ctx, runner, backends)
		}
	}
}

func (it *WatchCommand) cycle(ctx context.Context, runner *cycleRunner, backends *repositories.Backends) {
	result, state, err := runner.run(ctx, DeployOptions{Mode: entities.ModeAuto})
	recordCycle(ctx, backends, result, state)
	if flushErr := backends.Metrics.Flush(); flushErr != nil {
		logger.Warnf("Failed to export metrics: %v", flushErr)
	}

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, entities.ErrLockStale):
		logger.Errorf("Cycle blocked: %v", err)
	default:
		logger.Errorf("Cycle failed: %v", err)
	}
}

// debounce coalesces bursts of tracked-file events into one request, fired
// once no event arrived for the quiet window.
func debounce(
	ctx context.Context,
	events <-chan string,
	workspace repositories.WorkspaceRepository,
	quiet time.Duration,
	request func(reason string),
) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var (
		fire    <-chan time.Time
		pending string
	)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if !workspace.Tracks(path) {
				continue
			}
			pending = path
			timer.Reset(quiet)
			fire = timer.C
		case <-fire:
			fire = nil
			request("changed " + pending)
		}
	}
}
