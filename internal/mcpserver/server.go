// Package mcpserver exposes the session archive to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/Smailkiller/FOXFOCUS/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

const defaultListLimit = 20

// Archive is the read side of the session archive.
type Archive interface {
	Entries(ctx context.Context, limit int) ([]session.Entry, error)
	Entry(ctx context.Context, id string) (*session.Entry, error)
	TotalSeconds(ctx context.Context, since time.Time) (int, error)
}

// Server answers archive queries.
type Server struct {
	archive Archive
	version string
	log     zerolog.Logger
	now     func() time.Time
}

// New returns a server reading from archive.
func New(archive Archive, version string, log zerolog.Logger) *Server {
	return &Server{archive: archive, version: version, log: log, now: time.Now}
}

// MCPServer builds the mcp-go server with every tool registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("foxfocus", s.version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List archived FoxFocus sessions, most recently finished first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 20, 0 for all)")),
	), s.listSessions)

	srv.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get one archived session with its notes."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
	), s.getSession)

	srv.AddTool(mcp.NewTool("tracked_time",
		mcp.WithDescription("Total tracked time. since: today, week, a date (YYYY-MM-DD) or empty for all time."),
		mcp.WithString("since", mcp.Description("Start of the period")),
	), s.trackedTime)

	return srv
}

// Serve runs the server on stdin/stdout until the client disconnects.
func (s *Server) Serve() error {
	s.log.Info().Msg("serving archive over MCP stdio")
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultListLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	entries, err := s.archive.Entries(ctx, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list sessions")
		return mcp.NewToolResultError(fmt.Sprintf("list sessions: %v", err)), nil
	}
	if entries == nil {
		entries = []session.Entry{}
	}
	return jsonResult(entries)
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	entry, err := s.archive.Entry(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("get session")
		return mcp.NewToolResultError(fmt.Sprintf("get session: %v", err)), nil
	}
	if entry == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session %s not found", id)), nil
	}
	return jsonResult(entry)
}

func (s *Server) trackedTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	since, err := parseSince(req.GetString("since", ""), s.now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	total, err := s.archive.TotalSeconds(ctx, since)
	if err != nil {
		s.log.Error().Err(err).Msg("tracked time")
		return mcp.NewToolResultError(fmt.Sprintf("tracked time: %v", err)), nil
	}

	period := "all time"
	if !since.IsZero() {
		period = "since " + since.Format("2006-01-02 15:04")
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s tracked %s (%d seconds)", clock.Format(total), period, total)), nil
}

// parseSince resolves a period name relative to now in local time.
func parseSince(value string, now time.Time) (time.Time, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch value {
	case "", "all":
		return time.Time{}, nil
	case "today":
		return midnight, nil
	case "week":
		offset := (int(midnight.Weekday()) + 6) % 7 // weeks start on Monday
		return midnight.AddDate(0, 0, -offset), nil
	}

	t, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized since %q: use today, week or YYYY-MM-DD", value)
	}
	return t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
