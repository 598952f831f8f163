package mcp

import (
	"context"
	"log/slog"
	"time"

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
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training server. Estimate one-rep maxes, list personal records, and review training history and progress. All data is scoped to the authenticated user; weights are in kilograms."),
	)

	h := newHandlers(ds, log)

	s.AddTools(
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolRepMaxTable, Handler: h.repMaxTable},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetTrainingOverview, Handler: h.getTrainingOverview},
		server.ServerTool{Tool: toolGetYearReview, Handler: h.getYearReview},
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolGetLeaderboard, Handler: h.getLeaderboard},
	)

	s.AddResources(
		server.ServerResource{Resource: resOverview, Handler: h.overview},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

func newHandlers(ds DataSource, log *slog.Logger) *handlers {
	return &handlers{ds: ds, log: log, now: time.Now}
}

var resOverview = mcp.NewResource(
	"liftlog://overview",
	"Training Overview",
	mcp.WithResourceDescription("Lifetime totals, top personal records, most used routines and weekly volume"),
	mcp.WithMIMEType("application/json"),
)
