// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notetidy tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notetidy/internal/tidy"
)

// RulesURI is the resource holding CleanupRules.
const RulesURI = "notetidy://rules"

// Server wraps the MCP server with notetidy tools.
type Server struct {
	mcp *server.MCPServer
	svc *tidy.Service
}

// New creates a new MCP server with all notetidy tools registered.
func New(svc *tidy.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notetidy",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("strip_note",
		mcp.WithDescription("Remove capture-tool links, highlight links, level-1 headings and a trailing "+
			"source link from a note in the target folder. Read "+RulesURI+" for the exact rules."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note (e.g. Clippings/note.md)")),
		mcp.WithBoolean("dry_run", mcp.Description("Return a line diff without writing the note")),
	), s.stripNote)

	s.mcp.AddTool(mcp.NewTool("summarize_note",
		mcp.WithDescription("Summarize a note in the target folder and write the summary into its summary section. "+
			"Waits for the summary and returns the written entry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note")),
	), s.summarizeNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the notes directly inside the target folder."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_journal",
		mcp.WithDescription("List recorded stamp, strip and summarize operations, newest first."),
		mcp.WithString("path", mcp.Description("Only entries for this note")),
		mcp.WithString("action", mcp.Description("Only entries for this action: stamp, strip or summarize")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.getJournal)

	// Resource: cleanup rules.
	s.mcp.AddResource(
		mcp.NewResource(RulesURI, "Cleanup Rules",
			mcp.WithResourceDescription("What strip_note and summarize_note change in a note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) stripNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.StripNote(ctx, s.svc.Settings(), path, req.GetBool("dry_run", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.DryRun {
		if !res.Changed {
			return mcp.NewToolResultText("nothing to remove"), nil
		}
		return mcp.NewToolResultText(res.Diff), nil
	}
	return jsonResult(res), nil
}

func (s *Server) summarizeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SummarizeNote(ctx, s.svc.Settings(), path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Summary), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReadNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.svc.ListNotes(ctx, s.svc.Settings())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.History(ctx, req.GetString("path", ""), req.GetString("action", ""), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RulesURI,
			MIMEType: "text/markdown",
			Text:     CleanupRules,
		},
	}, nil
}
