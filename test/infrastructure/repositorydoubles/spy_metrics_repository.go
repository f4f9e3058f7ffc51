//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/sitedeploy/internal/domain/entities"
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// SpyMetricsRepository records observations.
type SpyMetricsRepository struct {
	mu sync.Mutex

	Cycles     []entities.CycleResult
	LockEvents []bool
	FlushCount int
	FlushErr   error
	ServedAddr string
}

var _ repositories.MetricsRepository = (*SpyMetricsRepository)(nil)

func (s *SpyMetricsRepository) ObserveCycle(result *entities.CycleResult, _ *entities.DeploymentState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cycles = append(s.Cycles, *result)
}

func (s *SpyMetricsRepository) ObserveLock(held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LockEvents = append(s.LockEvents, held)
}

func (s *SpyMetricsRepository) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FlushCount++
	return s.FlushErr
}

func (s *SpyMetricsRepository) Serve(ctx context.Context, addr string) error {
	s.mu.Lock()
	s.ServedAddr = addr
	s.mu.Unlock()
	<-ctx.Done()
	return nil
}

// CycleCount returns how many cycles were observed.
func (s *SpyMetricsRepository) CycleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Cycles)
}
