// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Daybook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/journal"
)

const noteFormatURI = "daybook://note-format"

// Server wraps the MCP server with Daybook tools.
type Server struct {
	mcp *server.MCPServer
	svc *journal.Service
}

// New creates a new MCP server with all Daybook tools registered.
func New(svc *journal.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_day",
		mcp.WithDescription("Read the note of one day. A day without a note returns exists=false."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date, e.g. 2026-10-19")),
	), s.readDay)

	s.mcp.AddTool(mcp.NewTool("write_day",
		mcp.WithDescription("Replace the note of one day with HTML markup. "+
			"Markup with no text and no images deletes the note. Read the format first via "+
			"the get_note_contract tool or the daybook://note-format resource."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date, e.g. 2026-10-19")),
		mcp.WithString("html_content", mcp.Required(), mcp.Description("Rich-text HTML markup")),
	), s.writeDay)

	s.mcp.AddTool(mcp.NewTool("list_days",
		mcp.WithDescription("List the dates that have a note, optionally limited to an inclusive range."),
		mcp.WithString("from", mcp.Description("First date (optional)")),
		mcp.WithString("to", mcp.Description("Last date (optional)")),
	), s.listDays)

	s.mcp.AddTool(mcp.NewTool("get_month",
		mcp.WithDescription("Month grid with note presence for every day."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2026")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month 1-12")),
	), s.getMonth)

	s.mcp.AddTool(mcp.NewTool("delete_day",
		mcp.WithDescription("Delete the note of one day. Deleting a missing note succeeds."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date, e.g. 2026-10-19")),
	), s.deleteDay)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Store an image from an http(s) URL or a base64 data URI and "+
			"return an <img> element to paste into a note."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadImage)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Daybook note format. "+
			"Call this before writing notes to use the supported markup."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How Daybook stores a day and which markup it accepts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func optionalString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func (s *Server) readDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := s.svc.Day(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(day), nil
}

func (s *Server) writeDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("html_content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	change, err := s.svc.ContentChanged(ctx, date, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(change), nil
}

func (s *Server) listDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := s.svc.ListDays(ctx, optionalString(req, "from"), optionalString(req, "to"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Date)
	}
	return jsonResult(dates), nil
}

func (s *Server) getMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, err := req.RequireFloat("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	month, err := req.RequireFloat("month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid month %v-%v", year, month)), nil
	}
	return jsonResult(s.svc.Calendar(int(year), time.Month(int(month)), "")), nil
}

func (s *Server) deleteDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteDay(ctx, date); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted: " + date), nil
}

type uploadResult struct {
	Name      string `json:"name"`
	SavedPath string `json:"savedPath"`
	HTMLImage string `json:"htmlImage"`
}

func (s *Server) uploadImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.svc.FetchImage(ctx, rawURL, optionalString(req, "filename"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	saved, err := s.svc.ImagePath(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.Marshal(uploadResult{
		Name:      name,
		SavedPath: saved,
		HTMLImage: fmt.Sprintf(`<img src="%s" />`, html.EscapeString(saved)),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
