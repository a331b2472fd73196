package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcycle/internal/models"
)

const feedbackColumns = `id, session_id, user_id, pump_quality, muscle_soreness, perceived_effort,
	energy_level, sleep_quality, created_at`

func scanFeedback(row pgx.Row) (models.Feedback, error) {
	var f models.Feedback
	err := row.Scan(&f.ID, &f.SessionID, &f.UserID, &f.PumpQuality, &f.MuscleSoreness, &f.PerceivedEffort,
		&f.EnergyLevel, &f.SleepQuality, &f.CreatedAt)
	return f, err
}

// FeedbackSince returns the user's feedback created at or after since, oldest first.
func (c *conn) FeedbackSince(ctx context.Context, userID int, since time.Time) ([]models.Feedback, error) {
	rows, err := c.q.Query(ctx,
		`SELECT `+feedbackColumns+` FROM auto_regulation_feedback
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *conn) FeedbackForSession(ctx context.Context, sessionID uuid.UUID) (models.Feedback, error) {
	f, err := scanFeedback(c.q.QueryRow(ctx,
		`SELECT `+feedbackColumns+` FROM auto_regulation_feedback WHERE session_id = $1`, sessionID))
	if err != nil {
		return models.Feedback{}, notFound(err, "feedback for session", sessionID)
	}
	return f, nil
}

// InsertFeedback stores a feedback row. A second row for the same session
// violates the unique constraint and surfaces as an invariant violation.
func (t *tx) InsertFeedback(ctx context.Context, f models.Feedback) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO auto_regulation_feedback (`+feedbackColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		f.ID, f.SessionID, f.UserID, f.PumpQuality, f.MuscleSoreness, f.PerceivedEffort,
		f.EnergyLevel, f.SleepQuality, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", mapPgError(err))
	}
	return nil
}
