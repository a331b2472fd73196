package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/claude/repcycle/internal/models"
)

const landmarkColumns = `user_id, muscle_group_id, mev, mav, mrv, current_volume, target_volume,
	recovery_level, adaptation_level, last_updated`

func scanLandmark(row pgx.Row) (models.Landmark, error) {
	var l models.Landmark
	err := row.Scan(&l.UserID, &l.MuscleGroupID, &l.MEV, &l.MAV, &l.MRV, &l.CurrentVolume, &l.TargetVolume,
		&l.RecoveryLevel, &l.AdaptationLevel, &l.LastUpdated)
	return l, err
}

func (c *conn) ListLandmarks(ctx context.Context, userID int) ([]models.Landmark, error) {
	rows, err := c.q.Query(ctx,
		`SELECT `+landmarkColumns+` FROM muscle_group_volume_landmarks
		 WHERE user_id = $1 ORDER BY muscle_group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying landmarks: %w", err)
	}
	defer rows.Close()

	var out []models.Landmark
	for rows.Next() {
		l, err := scanLandmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning landmark: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LockLandmarks takes row locks in ascending muscle group order so two
// transactions touching overlapping sets of rows cannot deadlock.
func (t *tx) LockLandmarks(ctx context.Context, userID int, muscleGroupIDs []int) (map[int]models.Landmark, error) {
	out := make(map[int]models.Landmark, len(muscleGroupIDs))
	if len(muscleGroupIDs) == 0 {
		return out, nil
	}
	ids := slices.Clone(muscleGroupIDs)
	slices.Sort(ids)

	rows, err := t.q.Query(ctx,
		`SELECT `+landmarkColumns+` FROM muscle_group_volume_landmarks
		 WHERE user_id = $1 AND muscle_group_id = ANY($2)
		 ORDER BY muscle_group_id
		 FOR UPDATE`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("locking landmarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLandmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning landmark: %w", err)
		}
		out[l.MuscleGroupID] = l
	}
	return out, rows.Err()
}

func (t *tx) UpsertLandmark(ctx context.Context, l models.Landmark) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO muscle_group_volume_landmarks (`+landmarkColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (user_id, muscle_group_id) DO UPDATE SET
			mev = EXCLUDED.mev,
			mav = EXCLUDED.mav,
			mrv = EXCLUDED.mrv,
			current_volume = EXCLUDED.current_volume,
			target_volume = EXCLUDED.target_volume,
			recovery_level = EXCLUDED.recovery_level,
			adaptation_level = EXCLUDED.adaptation_level,
			last_updated = EXCLUDED.last_updated`,
		l.UserID, l.MuscleGroupID, l.MEV, l.MAV, l.MRV, l.CurrentVolume, l.TargetVolume,
		l.RecoveryLevel, l.AdaptationLevel, l.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting landmark: %w", mapPgError(err))
	}
	return nil
}
