package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcycle/internal/models"
)

const mesocycleColumns = `id, user_id, name, template_id, start_date, end_date,
	current_week, total_weeks, phase, is_active, created_at, updated_at`

func scanMesocycle(row pgx.Row) (models.Mesocycle, error) {
	var m models.Mesocycle
	var phase string
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.TemplateID, &m.StartDate, &m.EndDate,
		&m.CurrentWeek, &m.TotalWeeks, &phase, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	m.Phase = models.Phase(phase)
	return m, err
}

func (c *conn) GetMesocycle(ctx context.Context, id uuid.UUID) (models.Mesocycle, error) {
	m, err := scanMesocycle(c.q.QueryRow(ctx,
		`SELECT `+mesocycleColumns+` FROM mesocycles WHERE id = $1`, id))
	if err != nil {
		return models.Mesocycle{}, notFound(err, "mesocycle", id)
	}
	return m, nil
}

func (c *conn) ActiveMesocycle(ctx context.Context, userID int) (models.Mesocycle, error) {
	m, err := scanMesocycle(c.q.QueryRow(ctx,
		`SELECT `+mesocycleColumns+` FROM mesocycles
		 WHERE user_id = $1 AND is_active
		 ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil {
		return models.Mesocycle{}, notFound(err, "active mesocycle for user", userID)
	}
	return m, nil
}

func (t *tx) LockMesocycle(ctx context.Context, id uuid.UUID) (models.Mesocycle, error) {
	m, err := scanMesocycle(t.q.QueryRow(ctx,
		`SELECT `+mesocycleColumns+` FROM mesocycles WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return models.Mesocycle{}, notFound(err, "mesocycle", id)
	}
	return m, nil
}

func (t *tx) InsertMesocycle(ctx context.Context, m models.Mesocycle) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO mesocycles (`+mesocycleColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.ID, m.UserID, m.Name, m.TemplateID, m.StartDate, m.EndDate,
		m.CurrentWeek, m.TotalWeeks, string(m.Phase), m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting mesocycle: %w", mapPgError(err))
	}
	return nil
}

func (t *tx) UpdateMesocycle(ctx context.Context, m models.Mesocycle) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE mesocycles
		 SET name = $2, end_date = $3, current_week = $4, phase = $5, is_active = $6, updated_at = $7
		 WHERE id = $1`,
		m.ID, m.Name, m.EndDate, m.CurrentWeek, string(m.Phase), m.IsActive, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating mesocycle: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("mesocycle", m.ID)
	}
	return nil
}

func (t *tx) DeactivateMesocycles(ctx context.Context, userID int) (int64, error) {
	tag, err := t.q.Exec(ctx,
		`UPDATE mesocycles SET is_active = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return 0, fmt.Errorf("deactivating mesocycles: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteMesocycle removes the mesocycle. Sessions, exercises, and feedback go
// with it through ON DELETE CASCADE.
func (t *tx) DeleteMesocycle(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM mesocycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting mesocycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("mesocycle", id)
	}
	return nil
}
