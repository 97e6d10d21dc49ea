// Package watch reacts to edits of the pile files made outside pile.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yoav-lavi/pile/internal/checksum"
	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/storage"
)

// Target is what the watcher drives when files change.
type Target interface {
	Reindex(ctx context.Context) (indexer.Stats, error)
	SyncCatalog(ctx context.Context) (bool, error)
}

// EventCallback is called after the watcher acted on a change. kind is
// "reindexed" or "synced".
type EventCallback func(kind string)

// DefaultDebounce is how long the watcher waits for a burst of events on
// one file to settle.
const DefaultDebounce = 150 * time.Millisecond

// Watcher observes the pile root directory.
type Watcher struct {
	root     string
	target   Target
	logger   *slog.Logger
	debounce time.Duration
	cb       EventCallback

	rulesSum string
}

// New creates a Watcher for root. cb may be nil.
func New(root string, target Target, logger *slog.Logger, cb EventCallback) *Watcher {
	return &Watcher{
		root:     root,
		target:   target,
		logger:   logger,
		debounce: DefaultDebounce,
		cb:       cb,
	}
}

// Run watches until ctx is cancelled.
//
// An edit of rules.toml that changes its bytes triggers a full reindex, so
// notes follow the new rules without a manual `pile index`. An edit of
// notes.toml only refreshes the catalog.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return err
	}
	w.rulesSum = w.currentRulesSum()

	w.logger.Info("watcher: started", slog.String("root", w.root))

	var (
		rulesTimer, notesTimer *time.Timer
		rulesCh, notesCh       <-chan time.Time
	)
	arm := func(t **time.Timer, ch *<-chan time.Time) {
		if *t == nil {
			*t = time.NewTimer(w.debounce)
			*ch = (*t).C
			return
		}
		(*t).Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range []*time.Timer{rulesTimer, notesTimer} {
				if t != nil {
					t.Stop()
				}
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-rulesCh:
			w.onRules(ctx)

		case <-notesCh:
			w.onNotes(ctx)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, storage.TempPrefix) || ev.Op == fsnotify.Chmod {
				continue
			}
			switch name {
			case storage.RulesFile:
				arm(&rulesTimer, &rulesCh)
			case storage.NotesFile:
				arm(&notesTimer, &notesCh)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) onRules(ctx context.Context) {
	data, err := os.ReadFile(filepath.Join(w.root, storage.RulesFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("watcher: read rules failed", slog.String("error", err.Error()))
		return
	}
	if !checksum.Changed(w.rulesSum, data) {
		w.logger.Debug("watcher: rules unchanged")
		return
	}
	w.rulesSum = checksum.Sum(data)

	stats, err := w.target.Reindex(ctx)
	if err != nil {
		w.logger.Warn("watcher: reindex failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("watcher: reindexed",
		slog.Int("notes", stats.Notes),
		slog.Int("changed", stats.Changed))
	if w.cb != nil {
		w.cb("reindexed")
	}
}

func (w *Watcher) onNotes(ctx context.Context) {
	changed, err := w.target.SyncCatalog(ctx)
	if err != nil {
		w.logger.Warn("watcher: catalog sync failed", slog.String("error", err.Error()))
		return
	}
	if changed {
		w.logger.Debug("watcher: catalog synced")
		if w.cb != nil {
			w.cb("synced")
		}
	}
}

func (w *Watcher) currentRulesSum() string {
	data, err := os.ReadFile(filepath.Join(w.root, storage.RulesFile))
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
