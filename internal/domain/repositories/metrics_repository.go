package repositories

import (
	"context"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
)

// MetricsRepository records cycle and deployment outcomes.
type MetricsRepository interface {
	ObserveCycle(result *entities.CycleResult, state *entities.DeploymentState)
	ObserveLock(held bool)
	// Flush exports the current values, e.g. to a node_exporter textfile.
	Flush() error
	// Serve exposes the metrics over HTTP on addr until ctx is done.
	Serve(ctx context.Context, addr string) error
}
