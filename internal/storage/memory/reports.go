package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/google/uuid"
)

// ReportsMemoryStorage — in-memory storage для экспортов плана.
// Байты экспорта лежат прямо в ReportMeta.Data.
type ReportsMemoryStorage struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]storage.ReportMeta
}

func NewReportsMemoryStorage() *ReportsMemoryStorage {
	return &ReportsMemoryStorage{reports: make(map[uuid.UUID]storage.ReportMeta)}
}

func (s *ReportsMemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.OwnerUserID = strings.TrimSpace(report.OwnerUserID)
	report.CreatedAt = time.Now().UTC()
	report.UpdatedAt = report.CreatedAt

	s.reports[report.ID] = cloneReport(*report)
	return nil
}

func (s *ReportsMemoryStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := cloneReport(report)
	return &out, nil
}

// ListReports returns the owner's exports, newest first.
func (s *ReportsMemoryStorage) ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ReportMeta, error) {
	owner := strings.TrimSpace(ownerUserID)

	s.mu.RLock()
	owned := make([]storage.ReportMeta, 0)
	for _, r := range s.reports {
		if r.OwnerUserID == owner {
			owned = append(owned, r)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(owned, func(a, b storage.ReportMeta) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})

	offset = max(offset, 0)
	if offset >= len(owned) {
		return []storage.ReportMeta{}, nil
	}
	owned = owned[offset:]
	if limit > 0 && limit < len(owned) {
		owned = owned[:limit]
	}
	// Listing never needs the payload.
	for i := range owned {
		owned[i].Data = nil
	}
	return owned, nil
}

func (s *ReportsMemoryStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

func cloneReport(r storage.ReportMeta) storage.ReportMeta {
	r.Data = slices.Clone(r.Data)
	return r
}
