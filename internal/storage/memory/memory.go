package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nutri-coach/internal/storage"
)

type snapshotKey struct {
	owner string
	key   string
}

// MemoryStorage — in-memory реализация storage.Storage
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[snapshotKey]storage.Snapshot
	chat      *ChatMemoryStorage
	reports   *ReportsMemoryStorage
	now       func() time.Time
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[snapshotKey]storage.Snapshot),
		chat:      NewChatMemoryStorage(),
		reports:   NewReportsMemoryStorage(),
		now:       time.Now,
	}
}

func (m *MemoryStorage) GetSnapshot(ctx context.Context, ownerUserID, key string) (storage.Snapshot, bool, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[snapshotKey{owner: strings.TrimSpace(ownerUserID), key: key}]
	if !ok {
		return storage.Snapshot{}, false, nil
	}
	snap.Payload = append([]byte(nil), snap.Payload...)
	return snap, true, nil
}

func (m *MemoryStorage) PutSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) (storage.Snapshot, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	k := snapshotKey{owner: strings.TrimSpace(ownerUserID), key: key}
	now := m.now().UTC()

	snap, exists := m.snapshots[k]
	if !exists {
		snap = storage.Snapshot{
			OwnerUserID: k.owner,
			Key:         key,
			CreatedAt:   now,
		}
	}
	// UpdatedAt is used as a revision marker, keep it strictly increasing.
	if !now.After(snap.UpdatedAt) {
		now = snap.UpdatedAt.Add(time.Microsecond)
	}
	snap.UpdatedAt = now
	snap.Payload = append([]byte(nil), payload...)
	m.snapshots[k] = snap

	out := snap
	out.Payload = append([]byte(nil), snap.Payload...)
	return out, nil
}

func (m *MemoryStorage) DeleteSnapshot(ctx context.Context, ownerUserID, key string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, snapshotKey{owner: strings.TrimSpace(ownerUserID), key: key})
	return nil
}

// Chat returns the chat history storage.
func (m *MemoryStorage) Chat() storage.ChatStorage {
	return m.chat
}

// Reports returns the plan exports storage.
func (m *MemoryStorage) Reports() storage.ReportsStorage {
	return m.reports
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
