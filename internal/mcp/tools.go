package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/models"
)

// --- Tool definitions ---

var toolGetRecommendations = mcp.NewTool("get_recommendations",
	mcp.WithDescription("Preview what advancing the week would do right now: whether recent feedback calls for a deload, the next week's per-muscle set targets, and the phase transition. Read-only."),
)

var toolGetActiveMesocycle = mcp.NewTool("get_active_mesocycle",
	mcp.WithDescription("Return the active mesocycle with its current week, phase (accumulation, intensification, deload) and every generated session including prescribed sets, reps, load and RIR."),
)

var toolAdvanceWeek = mcp.NewTool("advance_week",
	mcp.WithDescription("Advance a mesocycle by one week. Scores the last 7 days of feedback, runs the phase transition, updates per-muscle volume targets and generates next week's sessions with progressed loads. Advancing past the final week completes the mesocycle."),
	mcp.WithString("mesocycle_id", mcp.Description("Mesocycle UUID. Defaults to the active mesocycle.")),
)

var toolRecordFeedback = mcp.NewTool("record_feedback",
	mcp.WithDescription("Record post-session feedback for a completed session (each rating 1-10) and apply the auto-regulation update to the volume landmarks of every muscle group the session trained."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Completed session UUID")),
	mcp.WithNumber("pump_quality", mcp.Required(), mcp.Min(1), mcp.Max(10), mcp.Description("Muscle pump quality, 1 (none) to 10 (excellent)")),
	mcp.WithNumber("muscle_soreness", mcp.Required(), mcp.Min(1), mcp.Max(10), mcp.Description("Soreness before the session, 1 (none) to 10 (severe)")),
	mcp.WithNumber("perceived_effort", mcp.Required(), mcp.Min(1), mcp.Max(10), mcp.Description("Session difficulty, 1 (easy) to 10 (maximal)")),
	mcp.WithNumber("energy_level", mcp.Required(), mcp.Min(1), mcp.Max(10), mcp.Description("Energy, 1 (exhausted) to 10 (excellent)")),
	mcp.WithNumber("sleep_quality", mcp.Required(), mcp.Min(1), mcp.Max(10), mcp.Description("Sleep quality the night before, 1 (poor) to 10 (excellent)")),
)

var toolGetLandmarks = mcp.NewTool("get_landmarks",
	mcp.WithDescription("List per-muscle-group volume landmarks: MEV, MAV, MRV, current and target weekly sets, recovery and adaptation levels."),
)

var toolGetMesocycleSummary = mcp.NewTool("get_mesocycle_summary",
	mcp.WithDescription("Per-week completed sets per muscle group, tonnage, RIR distribution and failure rate for a mesocycle."),
	mcp.WithString("mesocycle_id", mcp.Description("Mesocycle UUID. Defaults to the active mesocycle.")),
)

var toolLogExercise = mcp.NewTool("log_exercise",
	mcp.WithDescription("Log what was actually performed for one prescribed exercise of a session. Only the supplied fields change."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Session exercise UUID (the id field of a session's exercise, not the catalog exercise id)")),
	mcp.WithString("actual_reps", mcp.Description("Reps per set, comma separated (e.g. '10,9,8')")),
	mcp.WithNumber("weight", mcp.Min(0), mcp.Description("Load in kg")),
	mcp.WithNumber("rpe", mcp.Min(0), mcp.Max(10), mcp.Description("Rating of perceived exertion 0-10")),
	mcp.WithNumber("rir", mcp.Min(0), mcp.Description("Reps in reserve")),
	mcp.WithBoolean("completed", mcp.Description("Mark the exercise completed")),
)

// --- Tool handlers ---

func (h *handlers) getRecommendations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := h.c.GetRecommendations(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_recommendations", err), nil
	}
	return jsonResult(rec), nil
}

func (h *handlers) getActiveMesocycle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detail, err := h.c.GetActiveMesocycle(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_active_mesocycle", err), nil
	}
	return jsonResult(detail), nil
}

func (h *handlers) advanceWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	id, err := h.mesocycleID(ctx, req, uid)
	if err != nil {
		return h.toolError("advance_week", err), nil
	}

	result, err := h.c.AdvanceWeek(ctx, uid, id)
	if err != nil {
		return h.toolError("advance_week", err), nil
	}
	return jsonResult(result), nil
}

func (h *handlers) recordFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuidArg(req, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	var in models.FeedbackInput
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"pump_quality", &in.PumpQuality},
		{"muscle_soreness", &in.MuscleSoreness},
		{"perceived_effort", &in.PerceivedEffort},
		{"energy_level", &in.EnergyLevel},
		{"sleep_quality", &in.SleepQuality},
	} {
		if *f.dst, err = intArg(args, f.name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := h.c.RecordFeedback(ctx, UserIDFromContext(ctx), sessionID, in)
	if err != nil {
		return h.toolError("record_feedback", err), nil
	}
	return jsonResult(result), nil
}

func (h *handlers) getLandmarks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	landmarks, err := h.c.ListLandmarks(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("get_landmarks", err), nil
	}
	return jsonResult(landmarks), nil
}

func (h *handlers) getMesocycleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	id, err := h.mesocycleID(ctx, req, uid)
	if err != nil {
		return h.toolError("get_mesocycle_summary", err), nil
	}

	summary, err := h.c.MesocycleSummary(ctx, uid, id)
	if err != nil {
		return h.toolError("get_mesocycle_summary", err), nil
	}
	return jsonResult(summary), nil
}

func (h *handlers) logExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := uuidArg(req, "exercise_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	var log coach.ExerciseLog
	if v, ok := args["actual_reps"].(string); ok {
		log.ActualReps = &v
	}
	if log.Weight, err = floatArg(args, "weight"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if log.RPE, err = floatArg(args, "rpe"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if log.RIR, err = intArg(args, "rir"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v, ok := args["completed"].(bool); ok {
		log.Completed = &v
	}

	ex, err := h.c.LogExercise(ctx, UserIDFromContext(ctx), exerciseID, log)
	if err != nil {
		return h.toolError("log_exercise", err), nil
	}
	return jsonResult(ex), nil
}

// mesocycleID reads the optional mesocycle_id argument, falling back to the
// user's active mesocycle.
func (h *handlers) mesocycleID(ctx context.Context, req mcp.CallToolRequest, userID int) (uuid.UUID, error) {
	if req.GetString("mesocycle_id", "") != "" {
		return uuidArg(req, "mesocycle_id")
	}
	active, err := h.c.GetActiveMesocycle(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return active.ID, nil
}

// toolError turns an operation error into a tool result. Domain errors are
// reported to the model as-is; anything else is logged.
func (h *handlers) toolError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvariantViolation),
		errors.Is(err, models.ErrIncompleteInput):
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("operation failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func uuidArg(req mcp.CallToolRequest, name string) (uuid.UUID, error) {
	s, err := req.RequireString(name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s parameter is required", name)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// intArg returns nil for an absent argument and rejects fractional numbers.
func intArg(args map[string]any, name string) (*int, error) {
	f, err := floatArg(args, name)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, fmt.Errorf("%s must be a whole number", name)
	}
	v := int(*f)
	return &v, nil
}

func floatArg(args map[string]any, name string) (*float64, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}
