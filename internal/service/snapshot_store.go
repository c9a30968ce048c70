package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/model"
)

// SnapshotStore holds the progressively loaded vault list the dashboard
// reads while a full load is still running.
type SnapshotStore interface {
	// Replace starts a new fetch cycle with its first batch.
	Replace(ctx context.Context, batch []model.VaultRecord) error
	// Append adds a later batch behind what is already published.
	Append(ctx context.Context, batch []model.VaultRecord) error
	Latest(ctx context.Context) (model.Snapshot, error)
}

// MemorySnapshotStore 进程内快照，Redis 未配置时使用
type MemorySnapshotStore struct {
	mu      sync.RWMutex
	vaults  []model.VaultRecord
	batches int
	updated time.Time
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Replace(ctx context.Context, batch []model.VaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults = slices.Clone(batch)
	s.batches = 1
	s.updated = time.Now().UTC()
	return nil
}

func (s *MemorySnapshotStore) Append(ctx context.Context, batch []model.VaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults = append(s.vaults, batch...)
	s.batches++
	s.updated = time.Now().UTC()
	return nil
}

func (s *MemorySnapshotStore) Latest(ctx context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vaults := slices.Clone(s.vaults)
	if vaults == nil {
		vaults = []model.VaultRecord{}
	}
	return model.Snapshot{
		Vaults:    vaults,
		Batches:   s.batches,
		UpdatedAt: s.updated,
	}, nil
}
