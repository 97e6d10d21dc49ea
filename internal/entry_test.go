package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yoav-lavi/pile/internal/apperr"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Store.Root = filepath.Join(t.TempDir(), "pile")
	cfg.Store.Timezone = "UTC"
	return cfg
}

func TestOpen_RequiresConfig(t *testing.T) {
	if _, err := Open(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestOpen_WithCatalog(t *testing.T) {
	cfg := testConfig(t)
	rt, err := Open(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	ctx := context.Background()
	if _, err := rt.Service.UpsertRule(ctx, "work", ptr("meeting")); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Service.CreateNote(ctx, "standup", "meeting at 10"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Store.Root, CatalogFile)); err != nil {
		t.Errorf("catalog not created: %v", err)
	}
	counts, err := rt.Service.RuleCounts(ctx)
	if err != nil || len(counts) != 1 || counts[0].Notes != 1 {
		t.Errorf("counts = %+v, %v", counts, err)
	}
}

func TestOpen_CatalogDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Enabled = false
	rt, err := Open(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if _, err := rt.Service.CreateNote(context.Background(), "a", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Store.Root, CatalogFile)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("catalog should not exist, stat err = %v", err)
	}
}

func TestOpen_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Timezone = "Nowhere/Void"
	rt, err := Open(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if _, err := rt.Service.CreateNote(context.Background(), "a", "b"); !errors.Is(err, apperr.ErrTimeUnavailable) {
		t.Errorf("err = %v, want ErrTimeUnavailable", err)
	}
}

func ptr(s string) *string { return &s }
