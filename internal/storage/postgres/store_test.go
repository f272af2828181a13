package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/iwvelando/studio-forecast/internal/storage"
)

// openTestStore connects to STUDIO_TEST_DATABASE_URL. The table is emptied
// first, so point it at a scratch database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("STUDIO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STUDIO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := store.pool.Exec(ctx, `TRUNCATE saved_models RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate saved_models: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sameJSON(t *testing.T, a, b json.RawMessage) bool {
	t.Helper()
	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("invalid json %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("invalid json %s: %v", b, err)
	}
	return reflect.DeepEqual(va, vb)
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), "", nil); err == nil {
		t.Error("Open() expected error for empty dsn")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	data := json.RawMessage(`{"studentFee": 70, "rent": 2400}`)
	created, err := store.Create(ctx, "Base case", data)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	model, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if model.Name != "Base case" || !sameJSON(t, model.Data, data) {
		t.Errorf("Get() = %+v", model)
	}

	updated, err := store.Update(ctx, created.ID, "Renamed", json.RawMessage(`{"rent":3000}`))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("Update() timestamps = %+v, created %+v", updated, created)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "Renamed" {
		t.Errorf("List() = %+v", list)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, expected ErrNotFound", err)
	}
	if _, err := store.Update(ctx, created.ID, "x", json.RawMessage(`{}`)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update() of deleted model error = %v, expected ErrNotFound", err)
	}
}
