//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/domain/commands"
	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	builders "github.com/rios0rios0/sitedeploy/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/sitedeploy/test/infrastructure/repositorydoubles"
)

func TestWatchCommandExecute(t *testing.T) {
	t.Parallel()

	watchSettings := func() *entities.Settings {
		return builders.NewSettingsBuilder().WithWatch(entities.WatchSettings{
			Interval:         time.Hour,
			Debounce:         10 * time.Millisecond,
			FilesystemEvents: true,
		}).BuildSettings()
	}

	t.Run("should run a cycle at startup and after a tracked file changes", func(t *testing.T) {
		t.Parallel()

		// given
		workspace := doubles.NewFakeWorkspaceRepository(siteFiles())
		state := builders.NewDeploymentStateBuilder().WithFingerprints(workspace.Snapshot()).BuildState()
		backends := doubles.NewInMemoryBackends(siteFiles(), state)
		backends.Notifier.Events = make(chan string, 4)
		command := commands.NewWatchCommand(&doubles.StubBackendsFactory{Backends: backends})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		// when
		go func() { done <- command.Execute(ctx, watchSettings(), commands.WatchOptions{}) }()
		require.Eventually(t, func() bool { return backends.Metrics.CycleCount() == 1 }, 5*time.Second, 5*time.Millisecond)
		backends.Workspace.Write(generatorPath, "gen-v2")
		backends.Notifier.Events <- generatorPath
		require.Eventually(t, func() bool { return backends.Actions.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)
		cancel()

		// then
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop after cancellation")
		}
		assert.Equal(t, []string{"/srv/site"}, backends.Notifier.Dirs)
		assert.Equal(t, "gen-v2", backends.State.Current().FileFingerprints[generatorPath])
		assert.Equal(t, 1, backends.History.CloseCount)
	})

	t.Run("should keep polling when filesystem events are unavailable", func(t *testing.T) {
		t.Parallel()

		// given
		backends := doubles.NewInMemoryBackends(siteFiles(), nil)
		backends.Notifier.WatchErr = errors.New("too many open files")
		command := commands.NewWatchCommand(&doubles.StubBackendsFactory{Backends: backends})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		// when
		go func() { done <- command.Execute(ctx, watchSettings(), commands.WatchOptions{}) }()
		require.Eventually(t, func() bool { return backends.Metrics.CycleCount() == 1 }, 5*time.Second, 5*time.Millisecond)
		cancel()

		// then
		require.NoError(t, <-done)
	})

	t.Run("should fail when the backends cannot be opened", func(t *testing.T) {
		t.Parallel()

		// given
		factory := &doubles.StubBackendsFactory{OpenErr: errors.New("unable to open database file")}
		command := commands.NewWatchCommand(factory)

		// when
		err := command.Execute(context.Background(), watchSettings(), commands.WatchOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open backends")
	})
}

func TestDebounce(t *testing.T) {
	t.Parallel()

	t.Run("should coalesce a burst of tracked events into one request", func(t *testing.T) {
		t.Parallel()

		// given
		workspace := doubles.NewFakeWorkspaceRepository(siteFiles())
		workspace.Untracked = []string{".sitedeploy/"}
		events := make(chan string, 8)
		var (
			mu       sync.Mutex
			requests []string
		)
		request := func(reason string) {
			mu.Lock()
			defer mu.Unlock()
			requests = append(requests, reason)
		}
		finished := make(chan struct{})

		// when
		go func() {
			commands.Debounce(context.Background(), events, workspace, 20*time.Millisecond, request)
			close(finished)
		}()
		events <- "building_reports/a.html"
		events <- "building_reports/b.html"
		events <- ".sitedeploy/state.json"

		// then
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(requests) == 1
		}, 5*time.Second, 5*time.Millisecond)
		close(events)
		<-finished
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"changed building_reports/b.html"}, requests)
	})

	t.Run("should ignore untracked paths entirely", func(t *testing.T) {
		t.Parallel()

		// given
		workspace := doubles.NewFakeWorkspaceRepository(siteFiles())
		workspace.Untracked = []string{".git/"}
		events := make(chan string, 2)
		requested := false
		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		// when
		go func() {
			commands.Debounce(ctx, events, workspace, time.Millisecond, func(string) { requested = true })
			close(finished)
		}()
		events <- ".git/index"
		time.Sleep(50 * time.Millisecond)
		cancel()
		<-finished

		// then
		assert.False(t, requested)
	})
}
