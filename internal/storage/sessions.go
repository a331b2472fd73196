package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcycle/internal/models"
)

const sessionColumns = `id, mesocycle_id, user_id, week, day, name, date, is_completed, total_volume, duration_sec`

const exerciseColumns = `id, session_id, position, exercise_id, sets, target_reps, actual_reps,
	weight, rpe, rir, rest_period, suggested_reps, special_method, method_config, is_completed`

const exerciseColumnCount = 15

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.MesocycleID, &s.UserID, &s.Week, &s.Day, &s.Name, &s.Date,
		&s.IsCompleted, &s.TotalVolume, &s.DurationSec)
	return s, err
}

func scanExercise(row pgx.Row) (models.SessionExercise, error) {
	var e models.SessionExercise
	var cfg []byte
	err := row.Scan(&e.ID, &e.SessionID, &e.Position, &e.ExerciseID, &e.Sets, &e.TargetReps, &e.ActualReps,
		&e.Weight, &e.RPE, &e.RIR, &e.RestPeriod, &e.SuggestedReps, &e.SpecialMethod, &cfg, &e.IsCompleted)
	if len(cfg) > 0 {
		e.MethodConfig = cfg
	}
	return e, err
}

// exerciseArgs flattens an exercise in exerciseColumns order.
func exerciseArgs(e models.SessionExercise) []any {
	return []any{e.ID, e.SessionID, e.Position, e.ExerciseID, e.Sets, e.TargetReps, e.ActualReps,
		e.Weight, e.RPE, e.RIR, e.RestPeriod, e.SuggestedReps, e.SpecialMethod, jsonArg(e.MethodConfig), e.IsCompleted}
}

// jsonArg sends an empty config as SQL NULL rather than a JSON document.
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// qualified prefixes every column in a comma-separated list with alias.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// placeholders returns "($1,...,$n),($n+1,...)" for rows x cols parameters.
func placeholders(rows, cols int) string {
	groups := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		groups = append(groups, "("+strings.Join(ph, ",")+")")
	}
	return strings.Join(groups, ",")
}

func (c *conn) ListSessions(ctx context.Context, mesocycleID uuid.UUID) ([]models.Session, error) {
	var exists bool
	if err := c.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM mesocycles WHERE id = $1)`, mesocycleID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking mesocycle: %w", err)
	}
	if !exists {
		return nil, models.NotFound("mesocycle", mesocycleID)
	}

	rows, err := c.q.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE mesocycle_id = $1 ORDER BY week, day`, mesocycleID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	exRows, err := c.q.Query(ctx,
		`SELECT `+qualified(exerciseColumns, "e")+`
		 FROM workout_exercises e
		 JOIN workout_sessions s ON s.id = e.session_id
		 WHERE s.mesocycle_id = $1
		 ORDER BY e.session_id, e.position`, mesocycleID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		e, err := scanExercise(exRows)
		if err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		if i, ok := index[e.SessionID]; ok {
			sessions[i].Exercises = append(sessions[i].Exercises, e)
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *conn) GetSession(ctx context.Context, id uuid.UUID) (models.Session, error) {
	s, err := scanSession(c.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, id))
	if err != nil {
		return models.Session{}, notFound(err, "session", id)
	}

	rows, err := c.q.Query(ctx,
		`SELECT `+exerciseColumns+` FROM workout_exercises
		 WHERE session_id = $1 ORDER BY position`, id)
	if err != nil {
		return models.Session{}, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return models.Session{}, fmt.Errorf("scanning session exercise: %w", err)
		}
		s.Exercises = append(s.Exercises, e)
	}
	return s, rows.Err()
}

func (c *conn) SessionForExercise(ctx context.Context, exerciseRowID uuid.UUID) (models.Session, error) {
	var sessionID uuid.UUID
	err := c.q.QueryRow(ctx, `SELECT session_id FROM workout_exercises WHERE id = $1`, exerciseRowID).Scan(&sessionID)
	if err != nil {
		return models.Session{}, notFound(err, "session exercise", exerciseRowID)
	}
	return c.GetSession(ctx, sessionID)
}

// InsertSession inserts the session row and all of its exercises in one
// multi-row statement.
func (t *tx) InsertSession(ctx context.Context, s models.Session) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO workout_sessions (`+sessionColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.ID, s.MesocycleID, s.UserID, s.Week, s.Day, s.Name, s.Date,
		s.IsCompleted, s.TotalVolume, s.DurationSec)
	if err != nil {
		return fmt.Errorf("inserting session: %w", mapPgError(err))
	}
	if len(s.Exercises) == 0 {
		return nil
	}

	args := make([]any, 0, len(s.Exercises)*exerciseColumnCount)
	for _, e := range s.Exercises {
		e.SessionID = s.ID
		args = append(args, exerciseArgs(e)...)
	}
	query := `INSERT INTO workout_exercises (` + exerciseColumns + `) VALUES ` +
		placeholders(len(s.Exercises), exerciseColumnCount)
	if _, err := t.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting session exercises: %w", mapPgError(err))
	}
	return nil
}

func (t *tx) UpdateSession(ctx context.Context, s models.Session) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE workout_sessions
		 SET name = $2, date = $3, is_completed = $4, total_volume = $5, duration_sec = $6
		 WHERE id = $1`,
		s.ID, s.Name, s.Date, s.IsCompleted, s.TotalVolume, s.DurationSec)
	if err != nil {
		return fmt.Errorf("updating session: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("session", s.ID)
	}
	return nil
}

func (t *tx) UpdateExercise(ctx context.Context, e models.SessionExercise) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE workout_exercises
		 SET sets = $2, target_reps = $3, actual_reps = $4, weight = $5, rpe = $6, rir = $7,
		     rest_period = $8, suggested_reps = $9, special_method = $10, method_config = $11,
		     is_completed = $12
		 WHERE id = $1`,
		e.ID, e.Sets, e.TargetReps, e.ActualReps, e.Weight, e.RPE, e.RIR,
		e.RestPeriod, e.SuggestedReps, e.SpecialMethod, jsonArg(e.MethodConfig), e.IsCompleted)
	if err != nil {
		return fmt.Errorf("updating session exercise: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("session exercise", e.ID)
	}
	return nil
}
