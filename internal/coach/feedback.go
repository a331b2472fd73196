package coach

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// FeedbackResult is the stored feedback and the landmark changes it caused.
type FeedbackResult struct {
	Feedback    models.Feedback            `json:"feedback"`
	Adjustments []periodization.Adjustment `json:"adjustments"`
}

// RecordFeedback stores the post-session feedback for a completed session and
// runs the auto-regulation update for every muscle group the session trained.
// Only those landmark rows are locked, so feedback for sessions training
// different muscles never contends.
func (s *Service) RecordFeedback(ctx context.Context, userID int, sessionID uuid.UUID, in models.FeedbackInput) (FeedbackResult, error) {
	now := s.now()
	f, err := models.NewFeedback(sessionID, userID, in, now)
	if err != nil {
		return FeedbackResult{}, err
	}

	var res FeedbackResult
	err = s.store.Update(ctx, func(tx models.Tx) error {
		sess, err := ownedSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsCompleted {
			return models.Invariant("feedback follows a completed session", "session %s is not completed", sessionID)
		}
		if _, err := tx.FeedbackForSession(ctx, sessionID); err == nil {
			return models.Invariant("one feedback per session", "session %s", sessionID)
		} else if !isNotFound(err) {
			return err
		}
		m, err := tx.GetMesocycle(ctx, sess.MesocycleID)
		if err != nil {
			return err
		}
		if err := tx.InsertFeedback(ctx, f); err != nil {
			return err
		}

		volumes := periodization.SessionMuscleVolumes(sess, s.catalog)
		ids := make([]int, 0, len(volumes))
		for _, v := range volumes {
			ids = append(ids, v.MuscleGroupID)
		}
		locked, err := tx.LockLandmarks(ctx, userID, ids)
		if err != nil {
			return err
		}

		res = FeedbackResult{Feedback: f, Adjustments: make([]periodization.Adjustment, 0, len(volumes))}
		for _, v := range volumes {
			l, err := s.landmarkFor(locked, userID, v.MuscleGroupID, now)
			if err != nil {
				return err
			}
			floor := l.MEV
			if m.Phase == models.PhaseDeload {
				floor = min(floor, periodization.DeloadTarget(l, s.tuning.Planner))
			}
			next, adj := periodization.ApplyFeedback(l, f, v, floor, now)
			if err := next.Validate(floor); err != nil {
				return fmt.Errorf("muscle group %d: %w", v.MuscleGroupID, err)
			}
			if err := tx.UpsertLandmark(ctx, next); err != nil {
				return err
			}
			res.Adjustments = append(res.Adjustments, adj)
		}
		return nil
	})
	if err != nil {
		return FeedbackResult{}, err
	}

	s.metrics.observeFeedback(res.Adjustments)
	s.logger.Info("feedback applied",
		"user_id", userID,
		"session_id", sessionID,
		"muscle_groups", len(res.Adjustments),
	)
	return res, nil
}

// ExerciseLog is what the trainee records against a planned exercise. Nil
// fields are left as they are.
type ExerciseLog struct {
	ActualReps *string  `json:"actual_reps,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	RPE        *float64 `json:"rpe,omitempty"`
	RIR        *int     `json:"rir,omitempty"`
	Completed  *bool    `json:"completed,omitempty"`
}

func (l ExerciseLog) empty() bool {
	return l.ActualReps == nil && l.Weight == nil && l.RPE == nil && l.RIR == nil && l.Completed == nil
}

// LogExercise records actual performance against one exercise row.
func (s *Service) LogExercise(ctx context.Context, userID int, exerciseRowID uuid.UUID, log ExerciseLog) (models.SessionExercise, error) {
	if log.empty() {
		return models.SessionExercise{}, models.Missing("actual_reps, weight, rpe, rir or completed")
	}

	var out models.SessionExercise
	err := s.store.Update(ctx, func(tx models.Tx) error {
		sess, err := tx.SessionForExercise(ctx, exerciseRowID)
		if err != nil {
			return err
		}
		if sess.UserID != userID {
			return models.NotFound("session exercise", exerciseRowID)
		}
		var e *models.SessionExercise
		for i := range sess.Exercises {
			if sess.Exercises[i].ID == exerciseRowID {
				e = &sess.Exercises[i]
				break
			}
		}
		if e == nil {
			return models.NotFound("session exercise", exerciseRowID)
		}

		if log.ActualReps != nil {
			reps := models.FormatReps(models.ParseReps(*log.ActualReps))
			e.ActualReps = &reps
		}
		if log.Weight != nil {
			e.Weight = log.Weight
		}
		if log.RPE != nil {
			e.RPE = log.RPE
		}
		if log.RIR != nil {
			e.RIR = log.RIR
		}
		if log.Completed != nil {
			e.IsCompleted = *log.Completed
		}
		if err := e.ValidateLog(); err != nil {
			return err
		}
		if err := tx.UpdateExercise(ctx, *e); err != nil {
			return err
		}
		out = *e
		return nil
	})
	if err != nil {
		return models.SessionExercise{}, err
	}
	s.logger.Debug("exercise logged", "user_id", userID, "exercise_row_id", exerciseRowID, "completed", out.IsCompleted)
	return out, nil
}

// CompleteSession marks a session completed and records its tonnage. Exercises
// with a rep log are marked completed along with it.
func (s *Service) CompleteSession(ctx context.Context, userID int, sessionID uuid.UUID, durationSec int) (models.Session, error) {
	if durationSec < 0 {
		return models.Session{}, models.Invariant("duration >= 0", "duration_sec=%d", durationSec)
	}

	var out models.Session
	err := s.store.Update(ctx, func(tx models.Tx) error {
		sess, err := ownedSession(ctx, tx, userID, sessionID)
		if err != nil {
			return err
		}
		var tonnage float64
		for i := range sess.Exercises {
			e := &sess.Exercises[i]
			if !e.IsCompleted && len(e.Reps()) > 0 {
				e.IsCompleted = true
				if err := tx.UpdateExercise(ctx, *e); err != nil {
					return err
				}
			}
			tonnage += e.Tonnage()
		}
		sess.IsCompleted = true
		sess.TotalVolume = tonnage
		if durationSec > 0 {
			sess.DurationSec = durationSec
		}
		if err := tx.UpdateSession(ctx, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.logger.Info("session completed", "user_id", userID, "session_id", sessionID, "tonnage", out.TotalVolume)
	return out, nil
}
