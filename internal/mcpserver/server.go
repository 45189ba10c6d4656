// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes filesnap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/taskservice"
)

const manifestFormatURI = "filesnap://manifest-format"

// Server wraps the MCP server with filesnap tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all filesnap tools registered.
func New(svc *taskservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"filesnap",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List declared tasks, their file properties and whether a baseline is recorded."),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("task_snapshot",
		mcp.WithDescription("Snapshot every file property of a task and return per-property fingerprints."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
	), s.taskSnapshot)

	s.mcp.AddTool(mcp.NewTool("task_status",
		mcp.WithDescription("Compare a task's current files with its recorded baseline. "+
			"Reports unchanged, changed, added or removed per property and whether the task is up to date."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
	), s.taskStatus)

	s.mcp.AddTool(mcp.NewTool("record_task",
		mcp.WithDescription("Record the current snapshot of a task as its new baseline. "+
			"Call this after the task has run successfully."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
	), s.recordTask)

	s.mcp.AddTool(mcp.NewTool("property_files",
		mcp.WithDescription("List every file observed by one property of a task, with content identities."),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
	), s.propertyFiles)

	s.mcp.AddTool(mcp.NewTool("get_manifest_format",
		mcp.WithDescription("Returns the task manifest format and the meaning of task states."),
	), s.getManifestFormat)

	s.mcp.AddResource(
		mcp.NewResource(manifestFormatURI, "Manifest Format",
			mcp.WithResourceDescription("YAML format declaring tasks and their file properties."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
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

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.svc.Tasks(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("no tasks declared"), nil
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		mark := ""
		if t.Recorded {
			mark = " (recorded)"
		}
		lines[i] = fmt.Sprintf("%s: %s%s", t.Name, strings.Join(t.Properties, ", "), mark)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) taskSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.Snapshot(ctx, task)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(snap), nil
}

func (s *Server) taskStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.Status(ctx, task)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st), nil
}

func (s *Server) recordTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.Record(ctx, task)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("recorded: %s %s", task, snap.Fingerprint)), nil
}

func (s *Server) propertyFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := req.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prop, err := req.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.Files(ctx, task, prop)
	if err != nil {
		return toolError(err), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no files observed"), nil
	}
	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = f.Path + " " + f.ContentID
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getManifestFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ManifestFormat), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      manifestFormatURI,
			MIMEType: "text/markdown",
			Text:     ManifestFormat,
		},
	}, nil
}
