package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"
)

// FileWorkspaceRepository exposes the tracked files of a site checkout. The
// tracked set is every regular file matching an include glob and no exclude glob.
type FileWorkspaceRepository struct {
	root    string
	fsys    fs.FS
	include []string
	exclude []string
}

// NewWorkspaceRepository creates a repository rooted at root.
func NewWorkspaceRepository(root string, include, exclude []string) *FileWorkspaceRepository {
	return &FileWorkspaceRepository{
		root:    root,
		fsys:    os.DirFS(root),
		include: normalizePatterns(include),
		exclude: normalizePatterns(exclude),
	}
}

// ListTracked expands the include globs and filters out excluded paths.
func (it *FileWorkspaceRepository) ListTracked(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range it.include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(it.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		for _, match := range matches {
			if matchesAny(it.exclude, match) {
				continue
			}
			seen[match] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	logger.Debugf("Tracking %d file(s) under %s", len(out), it.root)
	return out, nil
}

// Tracks reports whether rel would be listed if it existed.
func (it *FileWorkspaceRepository) Tracks(rel string) bool {
	rel = cleanRelative(rel)
	if rel == "" || strings.HasPrefix(rel, "../") {
		return false
	}
	return matchesAny(it.include, rel) && !matchesAny(it.exclude, rel)
}

// Fingerprint returns the hex SHA-256 of the file content, or "" when the file is gone.
func (it *FileWorkspaceRepository) Fingerprint(_ context.Context, rel string) (string, error) {
	file, err := it.fsys.Open(cleanRelative(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err = io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to read %q: %w", rel, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = cleanRelative(strings.TrimSpace(p))
		if p == "" || !doublestar.ValidatePattern(p) {
			if p != "" {
				logger.Warnf("Ignoring invalid glob %q", p)
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func cleanRelative(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
