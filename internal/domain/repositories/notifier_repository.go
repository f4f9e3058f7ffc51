package repositories

import "context"

// NotifierRepository streams filesystem change notifications for the watch daemon.
type NotifierRepository interface {
	// Watch starts watching the given directories and returns a channel of
	// workspace-relative paths that changed. The channel closes when ctx is done.
	Watch(ctx context.Context, dirs []string) (<-chan string, error)
}
