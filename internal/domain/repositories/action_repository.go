package repositories

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// ActionRepository runs the opaque regeneration steps of a deployment.
type ActionRepository interface {
	// Regenerate runs every configured step of the kind. Errors wrap
	// entities.ErrExternalActionFailed (or ErrExternalActionTimeout).
	Regenerate(ctx context.Context, kind entities.DeploymentKind) error
}

// PublishResult describes what the publish step did.
type PublishResult struct {
	Published bool // false when there was nothing to commit
	Commit    string
}

// PublisherRepository commits and pushes the regenerated output.
type PublisherRepository interface {
	Publish(ctx context.Context, kind entities.DeploymentKind, message string) (PublishResult, error)
}
