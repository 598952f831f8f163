package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/stats"
	"github.com/google/uuid"
)

// DataSource abstracts the statistics layer for MCP tools. Both *stats.Service
// (local database) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Overview(ctx context.Context, userID int) (stats.Overview, error)
	Records(ctx context.Context, userID int) ([]stats.RecordRow, error)
	YearReview(ctx context.Context, userID, year int) (stats.YearReview, error)
	ExerciseProgress(ctx context.Context, userID int, exerciseID uuid.UUID) (stats.ExerciseProgress, error)
	Leaderboard(ctx context.Context, userID int) ([]stats.LeaderboardEntry, error)
}

// Compile-time check: *stats.Service satisfies DataSource.
var _ DataSource = (*stats.Service)(nil)
