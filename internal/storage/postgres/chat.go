package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultChatPage = 50

// PostgresChatStorage — история диалога в таблице chat_messages.
// seq (BIGSERIAL) задаёт порядок реплик внутри владельца.
type PostgresChatStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresChatStorage(pool *pgxpool.Pool) *PostgresChatStorage {
	return &PostgresChatStorage{pool: pool}
}

func (s *PostgresChatStorage) InsertMessage(ctx context.Context, ownerUserID string, role, content string) (storage.ChatMessage, error) {
	msg := storage.ChatMessage{
		ID:          uuid.New(),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		Role:        strings.TrimSpace(role),
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, owner_user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq`,
		msg.ID, msg.OwnerUserID, msg.Role, msg.Content, msg.CreatedAt,
	).Scan(&msg.Seq)
	if err != nil {
		return storage.ChatMessage{}, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the newest limit messages older than before, oldest
// first. One extra row is fetched to decide whether a next cursor exists.
func (s *PostgresChatStorage) ListMessages(ctx context.Context, ownerUserID string, limit int, before *time.Time) ([]storage.ChatMessage, *time.Time, error) {
	if limit <= 0 {
		limit = defaultChatPage
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_user_id, seq, role, content, created_at
		FROM chat_messages
		WHERE owner_user_id = $1
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY seq DESC
		LIMIT $3`,
		strings.TrimSpace(ownerUserID), before, limit+1,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list chat messages: %w", err)
	}

	newestFirst, err := pgx.CollectRows(rows, pgx.RowToStructByPos[storage.ChatMessage])
	if err != nil {
		return nil, nil, fmt.Errorf("scan chat messages: %w", err)
	}

	var cursor *time.Time
	if len(newestFirst) > limit {
		newestFirst = newestFirst[:limit]
		oldest := newestFirst[limit-1].CreatedAt.UTC()
		cursor = &oldest
	}

	messages := make([]storage.ChatMessage, len(newestFirst))
	for i, msg := range newestFirst {
		messages[len(newestFirst)-1-i] = msg
	}
	return messages, cursor, nil
}

func (s *PostgresChatStorage) DeleteMessages(ctx context.Context, ownerUserID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_messages WHERE owner_user_id = $1`, strings.TrimSpace(ownerUserID)); err != nil {
		return fmt.Errorf("delete chat messages: %w", err)
	}
	return nil
}
