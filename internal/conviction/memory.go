package conviction

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/argus/internal/contracts"
)

// MemoryRepository is the in-process repository used by tests and
// backtests. Same append-only contract as the postgres one.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []contracts.ConvictionAssessment
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores one assessment; existing rows are never touched
func (m *MemoryRepository) Append(_ context.Context, assessment contracts.ConvictionAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, assessment)
	return nil
}

// History returns an entity's assessments, newest first
func (m *MemoryRepository) History(_ context.Context, entityID string, limit int) ([]contracts.ConvictionAssessment, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contracts.ConvictionAssessment
	for _, row := range m.rows {
		if row.EntityID == entityID {
			out = append(out, row)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnalysisDate.After(out[j].AnalysisDate)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
