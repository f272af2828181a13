// Package storage defines the persistence gateway for saved assumption sets.
//
// Stores treat the saved data as an opaque JSON document; they never look
// inside it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no saved model has the requested id.
var ErrNotFound = errors.New("model not found")

// Summary is a saved model without its data.
type Summary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Model is a saved assumption set.
type Model struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary drops the data of m.
func (m Model) Summary() Summary {
	return Summary{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// Store persists saved models. Implementations must be safe for concurrent
// use; concurrent updates of one id resolve as last write wins.
type Store interface {
	// List returns every model, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id int64) (Model, error)
	Create(ctx context.Context, name string, data json.RawMessage) (Summary, error)
	// Update replaces both name and data.
	Update(ctx context.Context, id int64, name string, data json.RawMessage) (Summary, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}
