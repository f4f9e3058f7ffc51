package repositories

import "context"

// WorkspaceRepository gives read access to the tracked files of the site workspace.
type WorkspaceRepository interface {
	// ListTracked returns the workspace-relative, slash-separated paths of every tracked file.
	ListTracked(ctx context.Context) ([]string, error)

	// Tracks reports whether a workspace-relative path belongs to the tracked set.
	Tracks(path string) bool

	// Fingerprint returns the content digest of a tracked file, or "" if it does not exist.
	Fingerprint(ctx context.Context, path string) (string, error)
}
