package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ключи снапшотов, под которыми хранятся профиль и текущий план.
const (
	KeyProfile = "nutri_profile"
	KeyPlan    = "nutri_plan"
)

// ErrNotFound возвращается, когда запись отсутствует.
var ErrNotFound = errors.New("not found")

// Snapshot — JSON-значение, сохранённое по ключу владельца.
type Snapshot struct {
	OwnerUserID string
	Key         string
	Payload     []byte // JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SnapshotStorage — key-value хранилище JSON-снапшотов (профиль, план).
type SnapshotStorage interface {
	// GetSnapshot возвращает снапшот по ключу; found=false если его нет.
	GetSnapshot(ctx context.Context, ownerUserID, key string) (Snapshot, bool, error)

	// PutSnapshot целиком заменяет значение по ключу.
	PutSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) (Snapshot, error)

	// DeleteSnapshot удаляет значение по ключу (без ошибки, если его нет).
	DeleteSnapshot(ctx context.Context, ownerUserID, key string) error
}

// Storage — корневое хранилище приложения.
type Storage interface {
	SnapshotStorage

	// Chat возвращает хранилище истории диалога.
	Chat() ChatStorage

	// Reports возвращает хранилище экспортов плана.
	Reports() ReportsStorage

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close закрывает соединение (для Postgres)
	Close() error
}

// ChatStorage — интерфейс для хранения сообщений чата.
type ChatStorage interface {
	// InsertMessage сохраняет сообщение чата.
	InsertMessage(ctx context.Context, ownerUserID string, role, content string) (ChatMessage, error)

	// ListMessages возвращает последние сообщения владельца и nextCursor.
	// before используется как курсор по created_at (strictly less than).
	ListMessages(ctx context.Context, ownerUserID string, limit int, before *time.Time) ([]ChatMessage, *time.Time, error)

	// DeleteMessages очищает историю владельца.
	DeleteMessages(ctx context.Context, ownerUserID string) error
}

// ChatMessage — сохранённое сообщение чата.
type ChatMessage struct {
	ID          uuid.UUID
	OwnerUserID string
	Seq         int64
	Role        string
	Content     string
	CreatedAt   time.Time
}

// ReportsStorage — интерфейс для работы с экспортами плана
type ReportsStorage interface {
	// CreateReport создаёт новый экспорт (metadata + data в memory-режиме)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает экспорт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает экспорты владельца с пагинацией
	ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет экспорт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// ReportMeta — метаданные экспорта
type ReportMeta struct {
	ID          uuid.UUID
	OwnerUserID string
	Format      string  // "pdf" or "csv"
	Title       string  // e.g. "Plan diario 2026-10-17"
	ObjectKey   *string // S3 object key (NULL for memory mode)
	SizeBytes   int64
	Status      string // "ready" or "failed"
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Data        []byte // export bytes when no blob store is configured
}
