package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/google/uuid"
)

// ChatMemoryStorage keeps each owner's thread in insertion order.
type ChatMemoryStorage struct {
	mu      sync.RWMutex
	seq     int64
	threads map[string][]storage.ChatMessage
}

func NewChatMemoryStorage() *ChatMemoryStorage {
	return &ChatMemoryStorage{threads: make(map[string][]storage.ChatMessage)}
}

func (s *ChatMemoryStorage) InsertMessage(ctx context.Context, ownerUserID string, role, content string) (storage.ChatMessage, error) {
	owner := strings.TrimSpace(ownerUserID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	msg := storage.ChatMessage{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Seq:         s.seq,
		Role:        strings.TrimSpace(role),
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	s.threads[owner] = append(s.threads[owner], msg)
	return msg, nil
}

func (s *ChatMemoryStorage) ListMessages(ctx context.Context, ownerUserID string, limit int, before *time.Time) ([]storage.ChatMessage, *time.Time, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.threads[strings.TrimSpace(ownerUserID)]

	// Thread is ordered by seq, so the cut point is the first message at or after before.
	end := len(thread)
	if before != nil {
		for i, msg := range thread {
			if !msg.CreatedAt.Before(*before) {
				end = i
				break
			}
		}
	}

	start := max(0, end-limit)
	page := make([]storage.ChatMessage, end-start)
	copy(page, thread[start:end])

	if start == 0 {
		return page, nil, nil
	}
	cursor := page[0].CreatedAt.UTC()
	return page, &cursor, nil
}

func (s *ChatMemoryStorage) DeleteMessages(ctx context.Context, ownerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, strings.TrimSpace(ownerUserID))
	return nil
}
