//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/sitedeploy/internal/domain/repositories"
)

// StubProcessRepository answers liveness questions with fixed values.
type StubProcessRepository struct {
	Host      string
	AlivePIDs map[int]bool
	AliveErr  error
}

var _ repositories.ProcessRepository = (*StubProcessRepository)(nil)

func (s *StubProcessRepository) Hostname() string { return s.Host }

func (s *StubProcessRepository) Alive(pid int) (bool, error) {
	if s.AliveErr != nil {
		return false, s.AliveErr
	}
	return s.AlivePIDs[pid], nil
}
