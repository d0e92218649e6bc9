// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes arkiv tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thalvik/arkiv/internal/pipeline"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/runner"
	"github.com/thalvik/arkiv/internal/storage"
)

// Server wraps the MCP server with arkiv tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	db     reports.RunStore
	runner *runner.Runner
}

// New creates a new MCP server with all arkiv tools registered.
func New(store storage.Provider, db reports.RunStore, run *runner.Runner) *Server {
	s := &Server{store: store, db: db, runner: run}

	s.mcp = server.NewMCPServer(
		"arkiv",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_document",
		mcp.WithDescription("Parse a METS document from the ingest root and return the "+
			"extracted SIP graph (intellectual entities, representations, files, fixity "+
			"assertions) as JSON. Nothing is recorded; use trigger_run for that."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document, relative to the ingest root (e.g. sip-001/mets.xml)")),
	), s.parseDocument)

	s.mcp.AddTool(mcp.NewTool("trigger_run",
		mcp.WithDescription("Run the full pipeline for a METS document in the ingest root "+
			"and record the outcome, including the fixity report."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the document, relative to the ingest root")),
	), s.triggerRun)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the METS documents currently waiting in the ingest root."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded pipeline runs, newest first."),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("fixity_report",
		mcp.WithDescription("Return the stored fixity results of a recorded run."),
		mcp.WithNumber("run_id", mcp.Required(), mcp.Description("Run ID as returned by list_runs")),
	), s.fixityReport)

	s.mcp.AddTool(mcp.NewTool("get_mets_profile",
		mcp.WithDescription("Returns the METS profile that submitted documents must follow. "+
			"Call this before assembling or debugging a submission package."),
	), s.getMETSProfile)

	// Resource: METS submission profile.
	s.mcp.AddResource(
		mcp.NewResource("arkiv://mets-profile", "METS Submission Profile",
			mcp.WithResourceDescription("Canonical METS structure that all submitted documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMETSProfileResource,
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

func (s *Server) parseDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	abs, err := s.store.Abs(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sip, err := pipeline.ParseSIP([]string{abs})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sip, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) triggerRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run, err := s.runner.Run(ctx, []string{path}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(run, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List("")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents in the ingest root"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, _, err := s.db.ListRuns(20, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) fixityReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.db.GetRun(int64(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %d", int64(id))), nil
	}
	results, err := s.db.FixityResults(int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMETSProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(METSProfile), nil
}

func (s *Server) readMETSProfileResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "arkiv://mets-profile",
			MIMEType: "text/markdown",
			Text:     METSProfile,
		},
	}, nil
}
