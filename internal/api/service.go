package api

import (
	"context"

	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
	"github.com/yoav-lavi/pile/internal/rules"
	"github.com/yoav-lavi/pile/internal/service"
)

// Service is the subset of the pile service the API depends on.
type Service interface {
	CreateNote(ctx context.Context, name, contents string) (models.Note, error)
	DeleteNote(ctx context.Context, name string) (int, error)
	UpsertRule(ctx context.Context, name string, keyword *string) (rules.Result, error)
	RemoveKeyword(ctx context.Context, rule, keyword string) error
	DeleteRule(ctx context.Context, rule string) error
	Reindex(ctx context.Context) (indexer.Stats, error)
	Search(ctx context.Context, query string, limit int) ([]models.Note, error)
	ListRules(ctx context.Context) ([]models.Rule, error)
	ListNotes(ctx context.Context) ([]models.Note, error)
	NotesByRule(ctx context.Context, rule string) ([]models.Note, error)
	RuleCounts(ctx context.Context) ([]catalog.RuleCount, error)
}

// Verify *service.Service satisfies Service at compile time.
var _ Service = (*service.Service)(nil)
