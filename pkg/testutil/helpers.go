// Package testutil provides common utility functions for testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/studio-forecast/internal/projection"
)

// FindSlice finds a named slice of a breakdown.
// Returns a pointer to the slice if found, nil otherwise.
func FindSlice(slices []projection.Slice, name string) *projection.Slice {
	for i := range slices {
		if slices[i].Name == name {
			return &slices[i]
		}
	}
	return nil
}

// FindMonth finds a month of the first-year series by its label.
func FindMonth(months []projection.Month, label string) *projection.Month {
	for i := range months {
		if months[i].Label == label {
			return &months[i]
		}
	}
	return nil
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
