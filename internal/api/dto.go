package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
)

// maxNameLength bounds note and rule names accepted over HTTP.
const maxNameLength = 512

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Name     string `json:"name" example:"standup"`
	Contents string `json:"contents" example:"Team meeting at 10"`
}

// Validate checks the request.
func (r CreateNoteRequest) Validate() error {
	return invalid(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLength)),
	))
}

// UpsertRuleRequest is the optional body of PUT /rules/{name}.
type UpsertRuleRequest struct {
	Keyword *string `json:"keyword,omitempty" example:"meeting"`
}

// Validate checks the request.
func (r UpsertRuleRequest) Validate() error {
	return invalid(validation.ValidateStruct(&r,
		validation.Field(&r.Keyword, validation.NilOrNotEmpty),
	))
}

// NoteListResponse wraps a list of notes.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// RuleListResponse wraps the rule collection.
type RuleListResponse struct {
	Rules []models.Rule `json:"rules"`
}

// RuleCountResponse wraps rule counts.
type RuleCountResponse struct {
	Rules []catalog.RuleCount `json:"rules"`
}

// UpsertRuleResponse is returned by PUT /rules/{name}.
type UpsertRuleResponse struct {
	Rule    models.Rule   `json:"rule"`
	Created bool          `json:"created"`
	Index   indexer.Stats `json:"index"`
}

// DeleteNoteResponse is returned by DELETE /notes/{name}.
type DeleteNoteResponse struct {
	Removed int `json:"removed"`
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []models.Note `json:"results"`
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}
