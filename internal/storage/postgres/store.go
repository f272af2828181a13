// Package postgres provides a PostgreSQL-backed saved model store.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/iwvelando/studio-forecast/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists saved models in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Open connects to dsn and applies embedded migrations.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// migrate runs goose over a short-lived database/sql handle so the pool is
// left to the store.
func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer func() { _ = sqlDB.Close() }()

	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := storage.Migrate(ctx, sqlDB, goose.DialectPostgres, migrations, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// List returns every saved model, most recently updated first.
func (s *Store) List(ctx context.Context) ([]storage.Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM saved_models
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list saved models: %w", err)
	}
	defer rows.Close()

	out := []storage.Summary{}
	for rows.Next() {
		var m storage.Summary
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan saved model: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved models: %w", err)
	}
	return out, nil
}

// Get returns one saved model.
func (s *Store) Get(ctx context.Context, id int64) (storage.Model, error) {
	var (
		m    storage.Model
		data []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, data, created_at, updated_at
		FROM saved_models WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &data, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Model{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Model{}, fmt.Errorf("get saved model %d: %w", id, err)
	}
	m.Data = json.RawMessage(data)
	return m, nil
}

// Create inserts a new saved model.
func (s *Store) Create(ctx context.Context, name string, data json.RawMessage) (storage.Summary, error) {
	var m storage.Summary
	err := s.pool.QueryRow(ctx, `
		INSERT INTO saved_models (name, data) VALUES ($1, $2::jsonb)
		RETURNING id, name, created_at, updated_at
	`, name, string(data)).Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return storage.Summary{}, fmt.Errorf("create saved model: %w", err)
	}
	return m, nil
}

// Update replaces the name and data of an existing model.
func (s *Store) Update(ctx context.Context, id int64, name string, data json.RawMessage) (storage.Summary, error) {
	var m storage.Summary
	err := s.pool.QueryRow(ctx, `
		UPDATE saved_models SET name = $1, data = $2::jsonb, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, created_at, updated_at
	`, name, string(data), id).Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Summary{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Summary{}, fmt.Errorf("update saved model %d: %w", id, err)
	}
	return m, nil
}

// Delete removes a saved model.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved model %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
