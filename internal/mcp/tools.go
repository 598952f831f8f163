package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxWeight bounds calculator inputs so results stay finite.
const maxWeight = 100_000

// --- Tool definitions ---

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate a one-rep max from a set of weight × reps. Returns the Epley and Brzycki estimates and their average, rounded to 0.1 kg. Returns 0 for reps outside 1-30."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight lifted in kg")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
)

var toolRepMaxTable = mcp.NewTool("rep_max_table",
	mcp.WithDescription("Expected load for 1 to 15 reps given a one-rep max, using the standard percentage table. Weights are rounded to whole kg."),
	mcp.WithNumber("one_rep_max", mcp.Required(), mcp.Description("One-rep max in kg")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("All personal records (heaviest weight ever lifted per exercise), heaviest first, with reps, date and a 1RM estimate. Exercise IDs can be passed to get_exercise_progress."),
)

var toolGetTrainingOverview = mcp.NewTool("get_training_overview",
	mcp.WithDescription("Lifetime training summary: session, set and volume totals, longest streak, top records, most used routines and the last weeks of volume."),
)

var toolGetYearReview = mcp.NewTool("get_year_review",
	mcp.WithDescription("Year in review: sessions, volume, training days, favourite exercise, best record and busiest month for one calendar year."),
	mcp.WithNumber("year", mcp.Description("Calendar year. Defaults to the current year.")),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Progress of one exercise over time: per-session max weight and volume, the personal record, a 1RM estimate and a rep-max table."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise ID (UUID) as returned by get_personal_records")),
)

var toolGetLeaderboard = mcp.NewTool("get_leaderboard",
	mcp.WithDescription("Max weight per exercise for the user and accepted friends, ranked heaviest first."),
)

// --- Tool handlers ---

func (h *handlers) estimateOneRepMax(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	if !(weight <= maxWeight) {
		return mcp.NewToolResultError("weight out of range"), nil
	}

	return jsonResult(map[string]float64{
		"epley":       training.Epley(weight, reps),
		"brzycki":     training.Brzycki(weight, reps),
		"one_rep_max": training.OneRepMax(weight, reps),
	})
}

func (h *handlers) repMaxTable(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oneRM, err := req.RequireFloat("one_rep_max")
	if err != nil {
		return mcp.NewToolResultError("one_rep_max parameter is required"), nil
	}
	if !(oneRM <= maxWeight) {
		return mcp.NewToolResultError("one_rep_max out of range"), nil
	}
	return jsonResult(training.RepPercentageTable(oneRM))
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := h.ds.Records(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(rows)
}

func (h *handlers) getTrainingOverview(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	o, err := h.ds.Overview(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_overview", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(o)
}

func (h *handlers) getYearReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year := req.GetInt("year", h.now().Year())
	if year < 1970 || year > 9999 {
		return mcp.NewToolResultError("year out of range"), nil
	}

	review, err := h.ds.YearReview(ctx, UserIDFromContext(ctx), year)
	if err != nil {
		h.log.Error("mcp get_year_review", "year", year, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(review)
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("exercise_id must be a UUID"), nil
	}

	p, err := h.ds.ExerciseProgress(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "exercise", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getLeaderboard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := h.ds.Leaderboard(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_leaderboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(board)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
