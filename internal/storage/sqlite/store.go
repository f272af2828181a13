// Package sqlite provides a SQLite-backed saved model store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/studio-forecast/internal/storage"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists saved models in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if err := storage.Migrate(ctx, sqlDB, goose.DialectSQLite3, migrations, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// SQLite allows one writer; a single connection queues writes in the pool
	// instead of failing them with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// List returns every saved model, most recently updated first.
func (s *Store) List(ctx context.Context) ([]storage.Summary, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM saved_models
		 ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list saved models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []storage.Summary{}
	for rows.Next() {
		var (
			summary            storage.Summary
			created, updatedAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.Name, &created, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan saved model: %w", err)
		}
		summary.CreatedAt = fromMillis(created)
		summary.UpdatedAt = fromMillis(updatedAt)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved models: %w", err)
	}
	return out, nil
}

// Get returns one saved model.
func (s *Store) Get(ctx context.Context, id int64) (storage.Model, error) {
	var (
		model              storage.Model
		data               string
		created, updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM saved_models WHERE id = ?`, id,
	).Scan(&model.ID, &model.Name, &data, &created, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Model{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Model{}, fmt.Errorf("get saved model %d: %w", id, err)
	}
	model.Data = json.RawMessage(data)
	model.CreatedAt = fromMillis(created)
	model.UpdatedAt = fromMillis(updatedAt)
	return model, nil
}

// Create inserts a new saved model.
func (s *Store) Create(ctx context.Context, name string, data json.RawMessage) (storage.Summary, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO saved_models (name, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, string(data), toMillis(now), toMillis(now),
	)
	if err != nil {
		return storage.Summary{}, fmt.Errorf("create saved model: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.Summary{}, fmt.Errorf("read saved model id: %w", err)
	}
	return storage.Summary{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Update replaces the name and data of an existing model.
func (s *Store) Update(ctx context.Context, id int64, name string, data json.RawMessage) (storage.Summary, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	var created int64
	err := s.sqlDB.QueryRowContext(ctx,
		`UPDATE saved_models SET name = ?, data = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING created_at`,
		name, string(data), toMillis(now), id,
	).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Summary{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Summary{}, fmt.Errorf("update saved model %d: %w", id, err)
	}
	return storage.Summary{ID: id, Name: name, CreatedAt: fromMillis(created), UpdatedAt: now}, nil
}

// Delete removes a saved model.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM saved_models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete saved model %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved model %d: %w", id, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
