package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yoav-lavi/pile/internal/apperr"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc Service
}

// NewHandler creates a new Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns a decoded URL parameter. Names may contain any
// character, so clients percent-encode them.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary	List all notes, or the notes tagged with a rule
//	@Tags		notes
//	@Produce	json
//	@Param		rule	query		string	false	"Only notes tagged with this rule"
//	@Success	200		{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var err error
	var resp NoteListResponse
	if rule := r.URL.Query().Get("rule"); rule != "" {
		resp.Notes, err = h.svc.NotesByRule(r.Context(), rule)
	} else {
		resp.Notes, err = h.svc.ListNotes(r.Context())
	}
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	resp.Total = len(resp.Notes)
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote handles POST /api/notes.
//
//	@Summary	Create a note; it is tagged with the rules matching its contents
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateNoteRequest	true	"Note to create"
//	@Success	201		{object}	models.Note
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "create note", err)
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Name, req.Contents)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// DeleteNote handles DELETE /api/notes/{name}.
//
//	@Summary	Delete every note with the given name
//	@Tags		notes
//	@Produce	json
//	@Param		name	path		string	true	"Note name"
//	@Success	200		{object}	DeleteNoteResponse
//	@Security	BearerAuth
//	@Router		/notes/{name} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	removed, err := h.svc.DeleteNote(r.Context(), name)
	if err != nil {
		writeError(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteNoteResponse{Removed: removed})
}

// ListRules handles GET /api/rules.
//
//	@Summary	List rules, optionally with tagged-note counts
//	@Tags		rules
//	@Produce	json
//	@Param		counts	query		bool	false	"Include note counts"
//	@Success	200		{object}	RuleListResponse
//	@Security	BearerAuth
//	@Router		/rules [get]
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	if counts, _ := strconv.ParseBool(r.URL.Query().Get("counts")); counts {
		rc, err := h.svc.RuleCounts(r.Context())
		if err != nil {
			writeError(w, "rule counts", err)
			return
		}
		writeJSON(w, http.StatusOK, RuleCountResponse{Rules: rc})
		return
	}
	rs, err := h.svc.ListRules(r.Context())
	if err != nil {
		writeError(w, "list rules", err)
		return
	}
	writeJSON(w, http.StatusOK, RuleListResponse{Rules: rs})
}

// UpsertRule handles PUT /api/rules/{name}.
//
//	@Summary	Create a rule or append a keyword to it, then retag every note
//	@Tags		rules
//	@Accept		json
//	@Produce	json
//	@Param		name	path		string				true	"Rule name"
//	@Param		body	body		UpsertRuleRequest	false	"Keyword to add"
//	@Success	200		{object}	UpsertRuleResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/rules/{name} [put]
func (h *Handler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	name := pathParam(r, "name")

	var req UpsertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "upsert rule", err)
		return
	}

	res, err := h.svc.UpsertRule(r.Context(), name, req.Keyword)
	if err != nil {
		writeError(w, "upsert rule", err)
		return
	}
	writeJSON(w, http.StatusOK, UpsertRuleResponse{Rule: res.Rule, Created: res.Created, Index: res.Index})
}

// DeleteRule handles DELETE /api/rules/{name}.
//
//	@Summary	Delete a rule (reserved)
//	@Tags		rules
//	@Failure	501	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/rules/{name} [delete]
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	writeError(w, "delete rule", h.svc.DeleteRule(r.Context(), pathParam(r, "name")))
}

// RemoveKeyword handles DELETE /api/rules/{name}/keywords/{keyword}.
//
//	@Summary	Remove a keyword from a rule (reserved)
//	@Tags		rules
//	@Failure	501	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/rules/{name}/keywords/{keyword} [delete]
func (h *Handler) RemoveKeyword(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RemoveKeyword(r.Context(), pathParam(r, "name"), pathParam(r, "keyword"))
	writeError(w, "remove keyword", err)
}

// RuleNotes handles GET /api/rules/{name}/notes.
//
//	@Summary	Notes tagged with a rule
//	@Tags		rules
//	@Produce	json
//	@Param		name	path		string	true	"Rule name"
//	@Success	200		{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/rules/{name}/notes [get]
func (h *Handler) RuleNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.NotesByRule(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, "rule notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Search handles GET /api/search.
//
//	@Summary	Case-insensitive substring search over rule names, note names and contents
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	false	"Search query; empty matches every note"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

// Reindex handles POST /api/index.
//
//	@Summary	Recompute the rules of every note
//	@Tags		rules
//	@Produce	json
//	@Success	200	{object}	indexer.Stats
//	@Security	BearerAuth
//	@Router		/index [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reindex(r.Context())
	if err != nil {
		writeError(w, "reindex", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeError maps an application error to a status code and logs the
// unexpected ones.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrUnsupported):
		writeJSON(w, http.StatusNotImplemented, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
