package commands

import (
	"context"
	"fmt"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// ChangeDetector compares the tracked files against the stored fingerprints.
// It never writes: fingerprints move forward only when a cycle consumes the changes.
type ChangeDetector struct {
	workspace  repositories.WorkspaceRepository
	classifier entities.Classifier
}

// NewChangeDetector creates a detector over the given workspace.
func NewChangeDetector(workspace repositories.WorkspaceRepository, classifier entities.Classifier) *ChangeDetector {
	return &ChangeDetector{workspace: workspace, classifier: classifier}
}

// Detect returns every tracked file whose fingerprint differs from the stored
// one. Files never seen before count as changed, and so do stored files that
// disappeared.
func (it *ChangeDetector) Detect(ctx context.Context, fingerprints map[string]string) (entities.ChangeSet, error) {
	tracked, err := it.workspace.ListTracked(ctx)
	if err != nil {
		return entities.ChangeSet{}, fmt.Errorf("list tracked files: %w", err)
	}

	present := make(map[string]struct{}, len(tracked))
	var changes []entities.Change

	for _, path := range tracked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.ChangeSet{}, ctxErr
		}

		current, fpErr := it.workspace.Fingerprint(ctx, path)
		if fpErr != nil {
			return entities.ChangeSet{}, fmt.Errorf("fingerprint %s: %w", path, fpErr)
		}
		if current == "" {
			continue // removed between listing and reading
		}
		present[path] = struct{}{}

		previous := fingerprints[path]
		if current != previous {
			changes = append(changes, entities.Change{
				Path:        path,
				Category:    it.classifier.Classify(path),
				Fingerprint: current,
				Previous:    previous,
			})
		}
	}

	for path, previous := range fingerprints {
		if _, ok := present[path]; ok {
			continue
		}
		changes = append(changes, entities.Change{
			Path:     path,
			Category: it.classifier.Classify(path),
			Previous: previous,
		})
	}

	return entities.NewChangeSet(changes...), nil
}
