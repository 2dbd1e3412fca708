package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/argus/internal/contracts"
)

// MemoryStore keeps snapshots in memory. Used by tests and by backtests
// that preload historical snapshots.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*contracts.SourceSnapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*contracts.SourceSnapshot)}
}

// Put stores a snapshot keyed by date. Identical content replaces itself,
// which keeps rebuilds idempotent.
func (m *MemoryStore) Put(_ context.Context, snap *contracts.SourceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := DateKey(snap.Date)
	if existing, ok := m.snaps[key]; ok && existing.Checksum == snap.Checksum {
		return nil
	}
	m.snaps[key] = snap
	return nil
}

// Latest returns the most recent snapshot at or before asOf
func (m *MemoryStore) Latest(_ context.Context, asOf time.Time) (*contracts.SourceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.snaps))
	for k := range m.snaps {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	limit := DateKey(asOf)
	for _, k := range keys {
		if k <= limit {
			return m.snaps[k], nil
		}
	}

	return nil, &contracts.NoSnapshotError{Date: asOf}
}
