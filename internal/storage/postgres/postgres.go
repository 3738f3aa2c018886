package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация storage.Storage
type PostgresStorage struct {
	pool    *pgxpool.Pool
	chat    *PostgresChatStorage
	reports *PostgresReportsStorage
}

// New открывает пул соединений и проверяет доступность БД
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:    pool,
		chat:    NewPostgresChatStorage(pool),
		reports: NewPostgresReportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) GetSnapshot(ctx context.Context, ownerUserID, key string) (storage.Snapshot, bool, error) {
	const query = `
		SELECT owner_user_id, key, payload, created_at, updated_at
		FROM snapshots
		WHERE owner_user_id = $1 AND key = $2
	`

	var snap storage.Snapshot
	err := p.pool.QueryRow(ctx, query, strings.TrimSpace(ownerUserID), key).Scan(
		&snap.OwnerUserID,
		&snap.Key,
		&snap.Payload,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Snapshot{}, false, nil
	}
	if err != nil {
		return storage.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (p *PostgresStorage) PutSnapshot(ctx context.Context, ownerUserID, key string, payload []byte) (storage.Snapshot, error) {
	const query = `
		INSERT INTO snapshots (owner_user_id, key, payload, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), clock_timestamp())
		ON CONFLICT (owner_user_id, key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    updated_at = GREATEST(clock_timestamp(), snapshots.updated_at + INTERVAL '1 microsecond')
		RETURNING owner_user_id, key, payload, created_at, updated_at
	`

	var snap storage.Snapshot
	err := p.pool.QueryRow(ctx, query, strings.TrimSpace(ownerUserID), key, payload).Scan(
		&snap.OwnerUserID,
		&snap.Key,
		&snap.Payload,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return storage.Snapshot{}, err
	}
	return snap, nil
}

func (p *PostgresStorage) DeleteSnapshot(ctx context.Context, ownerUserID, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM snapshots WHERE owner_user_id = $1 AND key = $2`, strings.TrimSpace(ownerUserID), key)
	return err
}

func (p *PostgresStorage) Chat() storage.ChatStorage {
	return p.chat
}

func (p *PostgresStorage) Reports() storage.ReportsStorage {
	return p.reports
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
