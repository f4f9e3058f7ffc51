//go:build unit

package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/sitedeploy/internal/infrastructure/repositories/watcher"
)

// waitFor drains events until want arrives or the deadline passes.
func waitFor(t *testing.T, events <-chan string, want string) bool {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got, ok := <-events:
			if !ok {
				return false
			}
			if got == want {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestFSNotifyNotifierWatch(t *testing.T) {
	t.Parallel()

	t.Run("should report writes relative to the root", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "building_reports"), 0o755))
		notifier := watcher.NewFSNotifyNotifier(root)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events, err := notifier.Watch(ctx, []string{root})
		require.NoError(t, err)

		// when
		require.NoError(t, os.WriteFile(filepath.Join(root, "building_reports", "a.html"), []byte("a"), 0o600))

		// then
		assert.True(t, waitFor(t, events, "building_reports/a.html"))
	})

	t.Run("should follow directories created after start", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		notifier := watcher.NewFSNotifyNotifier(root)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		events, err := notifier.Watch(ctx, []string{root})
		require.NoError(t, err)

		// when
		dir := filepath.Join(root, "building_reports", "2026")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		var seen bool
		for range 50 {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "c.html"), []byte(time.Now().String()), 0o600))
			select {
			case got := <-events:
				seen = got == "building_reports/2026/c.html"
			case <-time.After(100 * time.Millisecond):
			}
			if seen {
				break
			}
		}

		// then
		assert.True(t, seen)
	})

	t.Run("should close the channel when the context ends", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		notifier := watcher.NewFSNotifyNotifier(root)
		ctx, cancel := context.WithCancel(context.Background())
		events, err := notifier.Watch(ctx, []string{root})
		require.NoError(t, err)

		// when
		cancel()

		// then
		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("should fail for a missing directory", func(t *testing.T) {
		t.Parallel()

		// given
		notifier := watcher.NewFSNotifyNotifier(t.TempDir())

		// when
		_, err := notifier.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "absent")})

		// then
		require.Error(t, err)
	})
}
