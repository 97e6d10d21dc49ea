package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
	"github.com/yoav-lavi/pile/internal/service"
	"github.com/yoav-lavi/pile/internal/storage"
)

type fakeTarget struct {
	reindexed atomic.Int32
	synced    atomic.Int32
}

func (f *fakeTarget) Reindex(context.Context) (indexer.Stats, error) {
	f.reindexed.Add(1)
	return indexer.Stats{}, nil
}

func (f *fakeTarget) SyncCatalog(context.Context) (bool, error) {
	f.synced.Add(1)
	return true, nil
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, root string, target Target, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := New(root, target, quietLogger(), cb)
	w.debounce = 20 * time.Millisecond
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_RulesEditTriggersReindex(t *testing.T) {
	root := t.TempDir()
	target := &fakeTarget{}
	startWatcher(t, root, target, nil)

	_ = os.WriteFile(filepath.Join(root, storage.RulesFile), []byte("[[rules]]\nname = 'a'\nkind = 'Keywords'\nkeywords = []\n"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return target.reindexed.Load() == 1
	}, "rules edit did not trigger a reindex")
}

func TestWatcher_SameBytesSkipped(t *testing.T) {
	root := t.TempDir()
	rulesPath := filepath.Join(root, storage.RulesFile)
	content := []byte("[[rules]]\nname = 'a'\nkind = 'Keywords'\nkeywords = []\n")
	_ = os.WriteFile(rulesPath, content, 0o644)

	target := &fakeTarget{}
	startWatcher(t, root, target, nil)

	_ = os.WriteFile(rulesPath, content, 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := target.reindexed.Load(); n != 0 {
		t.Errorf("reindexed %d times for an unchanged file", n)
	}
}

func TestWatcher_NotesEditSyncsCatalog(t *testing.T) {
	root := t.TempDir()
	target := &fakeTarget{}
	var mu sync.Mutex
	var kinds []string
	startWatcher(t, root, target, func(kind string) {
		mu.Lock()
		kinds = append(kinds, kind)
		mu.Unlock()
	})

	_ = os.WriteFile(filepath.Join(root, storage.NotesFile), []byte("notes = []\n"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return slices.Contains(kinds, "synced")
	}, "notes edit did not sync the catalog")
	if n := target.reindexed.Load(); n != 0 {
		t.Errorf("notes edit must not reindex, got %d", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	target := &fakeTarget{}
	startWatcher(t, root, target, nil)

	_ = os.WriteFile(filepath.Join(root, "config.yaml"), []byte("app: {}"), 0o644)
	_ = os.WriteFile(filepath.Join(root, storage.TempPrefix+"123"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if target.reindexed.Load() != 0 || target.synced.Load() != 0 {
		t.Error("unrelated files triggered work")
	}
}

func TestWatcher_RestoresNoteRulesAfterExternalEdit(t *testing.T) {
	root := t.TempDir()
	store, err := storage.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(store)
	if _, err := svc.CreateNote(context.Background(), "a", "daily standup"); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, root, svc, nil)

	if err := store.SaveRules(models.RuleFile{Rules: []models.Rule{
		{Name: "work", Kind: models.RuleKeywords, Keywords: []string{"standup"}},
	}}); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		nf, err := store.LoadNotes()
		return err == nil && len(nf.Notes) == 1 && slices.Equal(nf.Notes[0].Rules, []string{"work"})
	}, "note rules not restored after external rules edit")
}
