package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// SessionSource is the read-only slice of the lifecycle controller exposed to
// assistants. Mutations stay behind the HTTP API; a tool call must never be
// able to start or cancel a workout.
type SessionSource interface {
	ReadSnapshot(ctx context.Context) (models.ActiveSessionSnapshot, session.Freshness)
	CurrentDraft() *models.LocalSessionDraft
	State() session.State
}

// New creates an MCP server with the session query tools registered.
func New(src SessionSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout session daemon. Query the customer's active workout session, its in-progress draft, and the lifecycle state. All tools are read-only."),
	)

	h := &handlers{src: src, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetSessionDraft, Handler: h.getSessionDraft},
		server.ServerTool{Tool: toolGetSessionState, Handler: h.getSessionState},
	)

	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	src SessionSource
	log *slog.Logger
}

var resActiveSession = mcp.NewResource(
	"liftlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The customer's currently active workout session, if any, with its freshness tag"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, fresh := h.src.ReadSnapshot(ctx)
	view := sessionView{Session: snap, Freshness: fresh.String(), State: string(h.src.State())}
	return jsonResource(req.Params.URI, view)
}
