// Package testutil provides shared test helpers for setting up pile roots
// and catalogs.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/notes"
	"github.com/yoav-lavi/pile/internal/storage"
)

// Now is the instant Clock reports.
var Now = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

// Clock returns a clock fixed at Now.
func Clock() notes.Clock {
	return notes.FixedClock(Now)
}

// TestStore creates a store over a temporary pile root.
func TestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestCatalog opens a catalog inside root that is closed on cleanup.
func TestCatalog(t *testing.T, root string) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
