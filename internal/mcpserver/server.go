// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pile tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
	"github.com/yoav-lavi/pile/internal/rules"
)

// defaultSearchLimit caps search_notes results unless the caller asks otherwise.
const defaultSearchLimit = 50

// Service is the subset of the pile service the tools call.
type Service interface {
	CreateNote(ctx context.Context, name, contents string) (models.Note, error)
	DeleteNote(ctx context.Context, name string) (int, error)
	UpsertRule(ctx context.Context, name string, keyword *string) (rules.Result, error)
	Reindex(ctx context.Context) (indexer.Stats, error)
	Search(ctx context.Context, query string, limit int) ([]models.Note, error)
	ListRules(ctx context.Context) ([]models.Rule, error)
	NotesByRule(ctx context.Context, rule string) ([]models.Note, error)
}

// Server wraps the MCP server with pile tools.
type Server struct {
	mcp *server.MCPServer
	svc Service
}

// New creates a new MCP server with all pile tools registered.
func New(svc Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"pile",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search over each note's rule names, name and contents. "+
			"An empty query returns every note."),
		mcp.WithString("query", mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum results (default %d)", defaultSearchLimit))),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. It is tagged with every rule whose keywords occur in the contents."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name; need not be unique")),
		mcp.WithString("contents", mcp.Required(), mcp.Description("Note text")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete every note with exactly this name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("upsert_rule",
		mcp.WithDescription("Create a keyword rule or append a keyword to an existing one, then retag all notes. "+
			"Read "+RuleSemanticsURI+" for the matching rules."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Rule name (case-sensitive)")),
		mcp.WithString("keyword", mcp.Description("Keyword to add; stored lower-cased")),
	), s.upsertRule)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List all rules with their kind and keywords."),
	), s.listRules)

	s.mcp.AddTool(mcp.NewTool("reindex_notes",
		mcp.WithDescription("Recompute the rule tags of every note from the current rules."),
	), s.reindexNotes)

	s.mcp.AddTool(mcp.NewTool("notes_by_rule",
		mcp.WithDescription("List the notes currently tagged with a rule."),
		mcp.WithString("rule", mcp.Required(), mcp.Description("Rule name")),
	), s.notesByRule)

	s.mcp.AddResource(
		mcp.NewResource(RuleSemanticsURI, "Rule Semantics",
			mcp.WithResourceDescription("How pile matches rules, tags notes and searches."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRuleSemantics,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	limit := defaultSearchLimit
	if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
		limit = int(l)
	}
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireName(req, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contents, err := req.RequireString("contents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateNote(ctx, name, contents)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireName(req, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.svc.DeleteNote(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %d note(s) named %q", removed, name)), nil
}

func (s *Server) upsertRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireName(req, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var keyword *string
	if k, kErr := req.RequireString("keyword"); kErr == nil {
		if err := validation.Validate(k, validation.Required); err != nil {
			return mcp.NewToolResultError("keyword: " + err.Error()), nil
		}
		keyword = &k
	}
	res, err := s.svc.UpsertRule(ctx, name, keyword)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listRules(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rs, err := s.svc.ListRules(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rs)
}

func (s *Server) reindexNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Reindex(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reindexed %d note(s), %d changed", stats.Notes, stats.Changed)), nil
}

func (s *Server) notesByRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rule, err := requireName(req, "rule")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ns, err := s.svc.NotesByRule(ctx, rule)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ns)
}

func (s *Server) readRuleSemantics(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RuleSemanticsURI,
			MIMEType: "text/markdown",
			Text:     RuleSemantics,
		},
	}, nil
}

func requireName(req mcp.CallToolRequest, key string) (string, error) {
	v, err := req.RequireString(key)
	if err != nil {
		return "", err
	}
	if err := validation.Validate(v, validation.Required, validation.Length(1, 512)); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
