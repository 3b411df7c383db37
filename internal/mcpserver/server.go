// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Othala worklog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/draft"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/templates"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp    *server.MCPServer
	engine *chain.Engine
	db     *index.DB
}

// New creates a new MCP server with all Othala tools registered.
func New(engine *chain.Engine, db *index.DB) *Server {
	s := &Server{engine: engine, db: db}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_draft",
		mcp.WithDescription("Read the current draft worklog entry."),
	), s.readDraft)

	s.mcp.AddTool(mcp.NewTool("write_draft",
		mcp.WithDescription("Replace the draft worklog entry. Content MUST follow the "+
			"entry format: a <summary>one-line summary</summary> tag followed by a "+
			"Markdown body describing the work. Read the protocol first via the "+
			"get_protocol tool or the othala://protocol resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full draft document, summary tag plus body")),
	), s.writeDraft)

	s.mcp.AddTool(mcp.NewTool("commit_entry",
		mcp.WithDescription("Seal the current draft as the next worklog entry. The entry "+
			"is hash-chained to its predecessor and immutable afterwards; the draft is "+
			"reset to the template."),
	), s.commitEntry)

	s.mcp.AddTool(mcp.NewTool("verify_chain",
		mcp.WithDescription("Verify the integrity of the whole worklog hash chain and "+
			"report the first break if any."),
	), s.verifyChain)

	s.mcp.AddTool(mcp.NewTool("chain_status",
		mcp.WithDescription("Report worklog status: entry count, latest entry, draft state."),
	), s.chainStatus)

	s.mcp.AddTool(mcp.NewTool("read_ledger",
		mcp.WithDescription("Read the worklog summary ledger, one row per committed entry. "+
			"The cheapest way to understand recent history."),
	), s.readLedger)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List committed worklog entries, newest first."),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through committed entry summaries and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the exact serialized content of a committed entry."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Entry filename (e.g. 000042_a1b2c3d4.md)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("get_protocol",
		mcp.WithDescription("Returns the worklog protocol that agents must follow. "+
			"Call this before writing drafts to learn the entry format and workflow."),
	), s.getProtocol)

	// Resource: worklog protocol.
	s.mcp.AddResource(
		mcp.NewResource("othala://protocol", "Worklog Protocol",
			mcp.WithResourceDescription("Entry format and commit workflow that all agents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readProtocolResource,
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

func (s *Server) readDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := s.engine.Store().ReadDraft()
	if err != nil {
		if errors.Is(err, apperr.ErrDraftNotFound) {
			return mcp.NewToolResultError("draft not found; use write_draft to start one"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) writeDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Store().WriteDraft(content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The draft is free-form until commit; report committability as a hint.
	if _, parseErr := draft.Parse(content); parseErr != nil {
		return mcp.NewToolResultText(fmt.Sprintf("draft saved (not yet committable: %v)", parseErr)), nil
	}
	return mcp.NewToolResultText("draft saved"), nil
}

func (s *Server) commitEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.engine.Commit(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Mirror the new entry; in stdio mode no watcher is running.
	if err := index.Sync(s.db, s.engine.Store(), slog.Default()); err != nil {
		slog.Warn("index sync after commit failed", slog.String("error", err.Error()))
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) verifyChain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.engine.Verify(ctx)
	if err != nil {
		detail := verifyFailureDetail(err)
		if detail == nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, _ := json.MarshalIndent(detail, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}

	body := map[string]any{"ok": true, "entries": rep.Entries}
	if rep.First != nil {
		body["first"] = rep.First
	}
	if rep.Latest != nil {
		body["latest"] = rep.Latest
	}
	out, _ := json.MarshalIndent(body, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// verifyFailureDetail maps a chain verification error to a structured
// payload, or nil when the error is not a chain break.
func verifyFailureDetail(err error) map[string]any {
	var (
		linkErr *chain.LinkError
		hashErr *chain.HashError
		missErr *chain.MissingPreviousError
	)
	switch {
	case errors.As(err, &linkErr):
		return map[string]any{
			"ok":       false,
			"kind":     "link_mismatch",
			"filename": linkErr.Filename,
			"expected": linkErr.Expected,
			"found":    linkErr.Found,
			"error":    linkErr.Error(),
		}
	case errors.As(err, &hashErr):
		return map[string]any{
			"ok":       false,
			"kind":     "hash_mismatch",
			"filename": hashErr.Filename,
			"expected": hashErr.Claimed,
			"found":    hashErr.Computed,
			"error":    hashErr.Error(),
		}
	case errors.As(err, &missErr):
		return map[string]any{
			"ok":       false,
			"kind":     "missing_previous",
			"filename": missErr.Filename,
			"error":    missErr.Error(),
		}
	}
	return nil
}

func (s *Server) chainStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.engine.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{
		"entries":      st.Entries,
		"draft":        st.Draft,
		"chain_intact": st.ChainErr == nil,
	}
	if st.Latest != nil {
		body["latest"] = st.Latest
	}
	if st.DraftSummary != "" {
		body["draft_summary"] = st.DraftSummary
	}
	if st.ChainErr != nil {
		body["chain_error"] = st.ChainErr.Error()
	}
	out, _ := json.MarshalIndent(body, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readLedger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.engine.Ledger(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.db.ListEntries(20, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if items == nil {
		items = []models.EntryMetadata{}
	}
	out, _ := json.MarshalIndent(map[string]any{
		"entries": items,
		"total":   total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.engine.Entry(ctx, filename)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", filename)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getProtocol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(templates.Agents), nil
}

func (s *Server) readProtocolResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://protocol",
			MIMEType: "text/markdown",
			Text:     templates.Agents,
		},
	}, nil
}
