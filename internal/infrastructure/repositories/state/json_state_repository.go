package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	quarantineLayout = "20060102T150405Z"
)

// JSONStateRepository keeps the deployment state in a single JSON file.
type JSONStateRepository struct {
	path  string
	clock func() time.Time
}

// NewStateRepository creates a repository for the state file at path.
func NewStateRepository(path string) *JSONStateRepository {
	return &JSONStateRepository{path: path, clock: time.Now}
}

// Load reads the state file. A missing file is a first run.
func (it *JSONStateRepository) Load(_ context.Context) (*entities.DeploymentState, error) {
	data, err := os.ReadFile(it.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debugf("No state at %q, starting fresh", it.path)
		return entities.NewDeploymentState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state, err := decode(data)
	if err != nil {
		return entities.NewDeploymentState(), fmt.Errorf("%w: %s: %w", entities.ErrStateCorrupt, it.path, err)
	}
	return state, nil
}

func decode(data []byte) (*entities.DeploymentState, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("file is empty")
	}
	var state entities.DeploymentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	state.Normalize()
	return &state, nil
}

// Quarantine renames the state file to <path>.corrupt-<timestamp>.
func (it *JSONStateRepository) Quarantine(_ context.Context) (string, error) {
	if _, err := os.Stat(it.path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	target := fmt.Sprintf("%s.corrupt-%s", it.path, it.clock().UTC().Format(quarantineLayout))
	if err := os.Rename(it.path, target); err != nil {
		return "", fmt.Errorf("failed to move corrupt state aside: %w", err)
	}
	return target, nil
}

// Save writes the state to a temporary file in the same directory and renames
// it over the old one, so readers see either the previous or the new state.
func (it *JSONStateRepository) Save(_ context.Context, state *entities.DeploymentState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(it.path)
	if err = os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(it.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary state file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err = os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("failed to set state file mode: %w", err)
	}
	if err = os.Rename(tmpPath, it.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
