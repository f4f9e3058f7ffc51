//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// FakeWorkspaceRepository is an in-memory workspace where a file's content is
// its own fingerprint.
type FakeWorkspaceRepository struct {
	mu    sync.Mutex
	files map[string]string

	ListErr        error
	FingerprintErr error
	Untracked      []string // path prefixes Tracks rejects
}

var _ repositories.WorkspaceRepository = (*FakeWorkspaceRepository)(nil)

// NewFakeWorkspaceRepository creates a workspace holding files (path -> content).
func NewFakeWorkspaceRepository(files map[string]string) *FakeWorkspaceRepository {
	copied := make(map[string]string, len(files))
	for k, v := range files {
		copied[k] = v
	}
	return &FakeWorkspaceRepository{files: copied}
}

// Write creates or replaces a file.
func (r *FakeWorkspaceRepository) Write(path, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = content
}

// Delete removes a file.
func (r *FakeWorkspaceRepository) Delete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, path)
}

// Snapshot returns the fingerprints a fully consumed state would hold.
func (r *FakeWorkspaceRepository) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.files))
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

func (r *FakeWorkspaceRepository) ListTracked(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := make([]string, 0, len(r.files))
	for path := range r.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func (r *FakeWorkspaceRepository) Tracks(path string) bool {
	for _, prefix := range r.Untracked {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func (r *FakeWorkspaceRepository) Fingerprint(_ context.Context, path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FingerprintErr != nil {
		return "", r.FingerprintErr
	}
	return r.files[path], nil
}
