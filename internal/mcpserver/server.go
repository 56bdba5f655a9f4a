// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Abate inspection tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arroyoseco/abate/internal/inspection"
)

// Server wraps the MCP server with Abate tools.
type Server struct {
	mcp *server.MCPServer
	svc *inspection.Service
}

// New creates a new MCP server with all Abate tools registered.
func New(svc *inspection.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Abate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new inspection session seeded with the default tag vocabulary."),
	), s.createSession)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all inspection sessions with address and photo count."),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read the full state of one inspection session: form fields, "+
			"checklist selections, photo evidence records, and tag vocabulary."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("add_photo",
		mcp.WithDescription("Attach a photo to an inspection session from an http(s) URL or a "+
			"base64 data URI. The photo is auto-tagged asynchronously; poll get_session to see "+
			"the detected tags once its status is needs_review."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of the image")),
		mcp.WithString("filename", mcp.Description("Optional original filename")),
	), s.addPhoto)

	s.mcp.AddTool(mcp.NewTool("add_photo_tag",
		mcp.WithDescription("Attach a violation tag to a photo. The photo description is "+
			"re-derived from the full tag list and the tag is absorbed into the session vocabulary."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("photo_id", mcp.Required(), mcp.Description("Photo identifier")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag text, e.g. 'Rodent Burrows'")),
	), s.addPhotoTag)

	s.mcp.AddTool(mcp.NewTool("remove_photo_tag",
		mcp.WithDescription("Remove an exact-match tag from a photo and re-derive its description."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("photo_id", mcp.Required(), mcp.Description("Photo identifier")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag text to remove")),
	), s.removePhotoTag)

	s.mcp.AddTool(mcp.NewTool("verify_photo",
		mcp.WithDescription("Mark a reviewed photo as verified. Returns the id of the next "+
			"photo awaiting review, if any."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("photo_id", mcp.Required(), mcp.Description("Photo identifier")),
	), s.verifyPhoto)

	s.mcp.AddTool(mcp.NewTool("toggle_violation",
		mcp.WithDescription("Flip a checklist violation selection on the session. "+
			"Toggling twice restores the original state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("violation_id", mcp.Required(), mcp.Description("Violation identifier, e.g. 'rodent'")),
	), s.toggleViolation)

	s.mcp.AddTool(mcp.NewTool("build_payload",
		mcp.WithDescription("Aggregate the session's checklist findings and tagged photos into "+
			"the report payload handed to the narrative generator. Read get_report_contract or "+
			"the abate://report-format resource for the payload shape."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), s.buildPayload)

	s.mcp.AddTool(mcp.NewTool("generate_report",
		mcp.WithDescription("Generate the violation-notice narrative for a session and store it "+
			"as the session's report content."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), s.generateReport)

	s.mcp.AddTool(mcp.NewTool("get_report_contract",
		mcp.WithDescription("Returns the report payload shape and the fixed narrative template "+
			"the notice body follows."),
	), s.getReportContract)

	// Resource: report format contract.
	s.mcp.AddResource(
		mcp.NewResource("abate://report-format", "Report Format Contract",
			mcp.WithResourceDescription("Payload shape and narrative template for violation notices."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readReportFormatResource,
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

func (s *Server) createSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.svc.CreateSession(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(sess, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no sessions"), nil
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%s\taddress=%q\tphotos=%d\tupdated=%s\n",
			it.ID, it.Address, it.PhotoCount, it.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.GetSession(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(sess, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addPhotoTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, photoID, errResult := s.photoArgs(req)
	if errResult != nil {
		return errResult, nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	photo, err := s.svc.AddTag(ctx, sessionID, photoID, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(photo, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) removePhotoTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, photoID, errResult := s.photoArgs(req)
	if errResult != nil {
		return errResult, nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	photo, err := s.svc.RemoveTag(ctx, sessionID, photoID, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(photo, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) verifyPhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, photoID, errResult := s.photoArgs(req)
	if errResult != nil {
		return errResult, nil
	}
	next, err := s.svc.VerifyPhoto(ctx, sessionID, photoID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if next == "" {
		return mcp.NewToolResultText("verified; review complete"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("verified; next photo awaiting review: %s", next)), nil
}

func (s *Server) toggleViolation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	violationID, err := req.RequireString("violation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	set, err := s.svc.ToggleViolation(ctx, sessionID, violationID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(set) == 0 {
		return mcp.NewToolResultText("checked violations: (none)"), nil
	}
	return mcp.NewToolResultText("checked violations: " + strings.Join(set, ", ")), nil
}

func (s *Server) buildPayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, err := s.svc.BuildPayload(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generateReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.GenerateReport(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getReportContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ReportFormatContract), nil
}

func (s *Server) readReportFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "abate://report-format",
			MIMEType: "text/markdown",
			Text:     ReportFormatContract,
		},
	}, nil
}

func (s *Server) photoArgs(req mcp.CallToolRequest) (sessionID, photoID string, errResult *mcp.CallToolResult) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	photoID, err = req.RequireString("photo_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return sessionID, photoID, nil
}
