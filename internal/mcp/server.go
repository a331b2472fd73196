package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(c Coach, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCycle", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCycle training coach. Inspect the active mesocycle, per-muscle volume landmarks and recommendations, log exercises, record post-session feedback, and advance the mesocycle week. All data is scoped to the authenticated user."),
	)

	h := &handlers{c: c, log: log}
	s.AddTools(h.tools()...)
	s.AddResources(h.resources()...)
	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	c   Coach
	log *slog.Logger
}

func (h *handlers) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: toolGetRecommendations, Handler: h.getRecommendations},
		{Tool: toolGetActiveMesocycle, Handler: h.getActiveMesocycle},
		{Tool: toolAdvanceWeek, Handler: h.advanceWeek},
		{Tool: toolRecordFeedback, Handler: h.recordFeedback},
		{Tool: toolGetLandmarks, Handler: h.getLandmarks},
		{Tool: toolGetMesocycleSummary, Handler: h.getMesocycleSummary},
		{Tool: toolLogExercise, Handler: h.logExercise},
	}
}

func (h *handlers) resources() []server.ServerResource {
	return []server.ServerResource{
		{Resource: resLandmarks, Handler: h.landmarksResource},
		{Resource: resActiveMesocycle, Handler: h.activeMesocycleResource},
	}
}

// --- Resource definitions ---

var resLandmarks = mcp.NewResource(
	"repcycle://landmarks",
	"Volume Landmarks",
	mcp.WithResourceDescription("Per-muscle-group MEV/MAV/MRV landmarks with current and target weekly sets, recovery and adaptation levels"),
	mcp.WithMIMEType("application/json"),
)

var resActiveMesocycle = mcp.NewResource(
	"repcycle://active_mesocycle",
	"Active Mesocycle",
	mcp.WithResourceDescription("The active mesocycle with its current week, phase and all generated sessions"),
	mcp.WithMIMEType("application/json"),
)
