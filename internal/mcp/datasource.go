package mcp

import (
	"context"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/models"
)

// Coach abstracts the operations behind MCP tools. Both *coach.Service (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type Coach interface {
	GetRecommendations(ctx context.Context, userID int) (coach.Recommendations, error)
	GetActiveMesocycle(ctx context.Context, userID int) (coach.MesocycleDetail, error)
	AdvanceWeek(ctx context.Context, userID int, mesocycleID uuid.UUID) (coach.AdvanceResult, error)
	RecordFeedback(ctx context.Context, userID int, sessionID uuid.UUID, in models.FeedbackInput) (coach.FeedbackResult, error)
	ListLandmarks(ctx context.Context, userID int) ([]models.Landmark, error)
	MesocycleSummary(ctx context.Context, userID int, mesocycleID uuid.UUID) (coach.MesocycleSummary, error)
	LogExercise(ctx context.Context, userID int, exerciseRowID uuid.UUID, log coach.ExerciseLog) (models.SessionExercise, error)
}

// Compile-time check: *coach.Service satisfies Coach.
var _ Coach = (*coach.Service)(nil)
