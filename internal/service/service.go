// Package service is the transaction boundary every pile front end goes
// through: load both collections, run one operation, save, publish.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
	"github.com/yoav-lavi/pile/internal/notes"
	"github.com/yoav-lavi/pile/internal/rules"
	"github.com/yoav-lavi/pile/internal/search"
	"github.com/yoav-lavi/pile/internal/sse"
	"github.com/yoav-lavi/pile/internal/storage"
)

// Notifier receives change events after a successful save.
type Notifier interface {
	Notify(eventType string, data any)
}

// Service coordinates the store, the managers and the optional catalog.
// All operations are serialised on one mutex.
type Service struct {
	mu       sync.Mutex
	store    *storage.Store
	notes    *notes.Manager
	catalog  catalog.Catalog
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used to stamp new notes.
func WithClock(c notes.Clock) Option {
	return func(s *Service) { s.notes = notes.NewManager(c) }
}

// WithCatalog mirrors every save into c.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithNotifier publishes change events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service over store.
func New(store *storage.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, o := range opts {
		o(s)
	}
	if s.notes == nil {
		s.notes = notes.NewManager(nil)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Root returns the pile directory.
func (s *Service) Root() string { return s.store.Root() }

// CreateNote stamps and tags a new note and saves the note collection.
func (s *Service) CreateNote(_ context.Context, name, contents string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, nf, err := s.load()
	if err != nil {
		return models.Note{}, err
	}
	n, err := s.notes.Create(&nf, rf.Rules, name, contents)
	if err != nil {
		return models.Note{}, err
	}
	if err := s.store.SaveNotes(nf); err != nil {
		return models.Note{}, err
	}
	s.logger.Debug("note created", slog.String("name", name), slog.Int("rules", len(n.Rules)))
	s.afterSave(rf, nf)
	s.notify(sse.TypeNoteCreated, n)
	return n, nil
}

// DeleteNote removes every note named name and returns how many went.
// Removing nothing still rewrites the file.
func (s *Service) DeleteNote(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, nf, err := s.load()
	if err != nil {
		return 0, err
	}
	removed := s.notes.Delete(&nf, name)
	if err := s.store.SaveNotes(nf); err != nil {
		return 0, err
	}
	s.logger.Debug("notes deleted", slog.String("name", name), slog.Int("removed", removed))
	s.afterSave(rf, nf)
	if removed > 0 {
		s.notify(sse.TypeNoteDeleted, map[string]any{"name": name, "removed": removed})
	}
	return removed, nil
}

// UpsertRule creates or extends a rule, reindexes every note and saves
// rules first, then notes.
func (s *Service) UpsertRule(_ context.Context, name string, keyword *string) (rules.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, nf, err := s.load()
	if err != nil {
		return rules.Result{}, err
	}
	res := rules.Upsert(&rf, &nf, name, keyword)
	if err := s.store.SaveRules(rf); err != nil {
		return rules.Result{}, err
	}
	if err := s.store.SaveNotes(nf); err != nil {
		return rules.Result{}, err
	}
	s.logger.Debug("rule upserted",
		slog.String("name", name),
		slog.Bool("created", res.Created),
		slog.Int("retagged", res.Index.Changed))
	s.afterSave(rf, nf)
	s.notify(sse.TypeRuleUpdated, res.Rule)
	return res, nil
}

// RemoveKeyword is reserved; rules cannot lose keywords yet.
func (s *Service) RemoveKeyword(_ context.Context, rule, keyword string) error {
	return fmt.Errorf("service: remove keyword %q from %q: %w", keyword, rule, apperr.ErrUnsupported)
}

// DeleteRule is reserved; rules cannot be deleted yet.
func (s *Service) DeleteRule(_ context.Context, rule string) error {
	return fmt.Errorf("service: delete rule %q: %w", rule, apperr.ErrUnsupported)
}

// Reindex recomputes every note's rules and saves the note collection.
func (s *Service) Reindex(_ context.Context) (indexer.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, nf, err := s.load()
	if err != nil {
		return indexer.Stats{}, err
	}
	stats := indexer.Reindex(nf.Notes, rf.Rules)
	if err := s.store.SaveNotes(nf); err != nil {
		return indexer.Stats{}, err
	}
	s.logger.Debug("notes reindexed", slog.Int("notes", stats.Notes), slog.Int("changed", stats.Changed))
	s.afterSave(rf, nf)
	s.notify(sse.TypeNotesReindexed, stats)
	return stats, nil
}

// Search returns the notes matching query in collection order, at most
// limit of them when limit is positive.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nf, err := s.store.LoadNotes()
	if err != nil {
		return nil, err
	}
	return search.Collect(nf.Notes, query, limit), nil
}

// ListRules returns the rule collection.
func (s *Service) ListRules(_ context.Context) ([]models.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, err := s.store.LoadRules()
	if err != nil {
		return nil, err
	}
	return nonNil(rf.Rules), nil
}

// ListNotes returns the note collection.
func (s *Service) ListNotes(_ context.Context) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nf, err := s.store.LoadNotes()
	if err != nil {
		return nil, err
	}
	return nonNil(nf.Notes), nil
}

// NotesByRule returns the notes currently tagged with rule. It reads the
// catalog when one is configured and the note file otherwise.
func (s *Service) NotesByRule(_ context.Context, rule string) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		if _, err := s.syncCatalog(); err != nil {
			return nil, err
		}
		return s.catalog.NotesByRule(rule)
	}
	nf, err := s.store.LoadNotes()
	if err != nil {
		return nil, err
	}
	return lo.Filter(nf.Notes, func(n models.Note, _ int) bool {
		return lo.Contains(n.Rules, rule)
	}), nil
}

// RuleCounts returns every rule with the number of notes it tags.
func (s *Service) RuleCounts(_ context.Context) ([]catalog.RuleCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		if _, err := s.syncCatalog(); err != nil {
			return nil, err
		}
		return s.catalog.RuleCounts()
	}
	rf, nf, err := s.load()
	if err != nil {
		return nil, err
	}
	return lo.Map(rf.Rules, func(r models.Rule, _ int) catalog.RuleCount {
		tagged := lo.CountBy(nf.Notes, func(n models.Note) bool {
			return lo.Contains(n.Rules, r.Name)
		})
		return catalog.RuleCount{Name: r.Name, Kind: r.Kind.String(), Notes: tagged}
	}), nil
}

// SyncCatalog refreshes the catalog from the files on disk. It reports
// whether anything was rewritten; without a catalog it does nothing.
func (s *Service) SyncCatalog(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return false, nil
	}
	return s.syncCatalog()
}

func (s *Service) load() (models.RuleFile, models.NoteFile, error) {
	rf, err := s.store.LoadRules()
	if err != nil {
		return models.RuleFile{}, models.NoteFile{}, err
	}
	nf, err := s.store.LoadNotes()
	if err != nil {
		return models.RuleFile{}, models.NoteFile{}, err
	}
	return rf, nf, nil
}

func (s *Service) raw() ([]byte, []byte, error) {
	rulesRaw, err := s.store.ReadRaw(storage.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	notesRaw, err := s.store.ReadRaw(storage.NotesFile)
	if err != nil {
		return nil, nil, err
	}
	return rulesRaw, notesRaw, nil
}

func (s *Service) syncCatalog() (bool, error) {
	rulesRaw, notesRaw, err := s.raw()
	if err != nil {
		return false, err
	}
	rf, nf, err := s.load()
	if err != nil {
		return false, err
	}
	return catalog.Sync(s.catalog, rf, nf, catalog.SourceSum(rulesRaw, notesRaw), s.logger)
}

// afterSave mirrors the saved collections into the catalog. The TOML files
// are already durable, so a catalog failure is logged, not returned.
func (s *Service) afterSave(rf models.RuleFile, nf models.NoteFile) {
	if s.catalog == nil {
		return
	}
	rulesRaw, notesRaw, err := s.raw()
	if err != nil {
		s.logger.Warn("catalog: read sources failed", slog.String("error", err.Error()))
		return
	}
	if _, err := catalog.Sync(s.catalog, rf, nf, catalog.SourceSum(rulesRaw, notesRaw), s.logger); err != nil {
		s.logger.Warn("catalog: sync failed", slog.String("error", err.Error()))
	}
}

func (s *Service) notify(eventType string, data any) {
	if s.notifier != nil {
		s.notifier.Notify(eventType, data)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
