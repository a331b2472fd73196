package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// CompletionRecommendation is returned when a mesocycle runs out of weeks.
const CompletionRecommendation = "mesocycle complete, deload recommended"

// AdvanceResult is the outcome of AdvanceWeek. A completed mesocycle carries
// MesocycleComplete and a recommendation instead of new sessions.
type AdvanceResult struct {
	MesocycleID       uuid.UUID                    `json:"mesocycle_id"`
	NewWeek           int                          `json:"new_week"`
	Phase             models.Phase                 `json:"phase"`
	Transition        periodization.Step           `json:"transition"`
	VolumeAdjustments []periodization.VolumeTarget `json:"volume_adjustments"`
	Sessions          []models.Session             `json:"sessions,omitempty"`
	Fatigue           periodization.FatigueReport  `json:"fatigue"`
	MesocycleComplete bool                         `json:"mesocycle_complete"`
	Recommendation    string                       `json:"recommendation,omitempty"`
}

// AdvanceWeek moves the mesocycle one week forward. Under a lock on the
// mesocycle row it scores recent feedback, runs the phase machine, writes the
// planned targets onto the user's landmarks and generates the new week's
// sessions. All of it commits together or not at all.
func (s *Service) AdvanceWeek(ctx context.Context, userID int, mesocycleID uuid.UUID) (AdvanceResult, error) {
	now := s.now()
	var res AdvanceResult

	err := s.store.Update(ctx, func(tx models.Tx) error {
		m, err := tx.LockMesocycle(ctx, mesocycleID)
		if err != nil {
			return err
		}
		if m.UserID != userID {
			return models.NotFound("mesocycle", mesocycleID)
		}

		feedback, err := tx.FeedbackSince(ctx, userID, s.tuning.Fatigue.WindowStart(now))
		if err != nil {
			return fmt.Errorf("reading feedback window: %w", err)
		}
		report := periodization.AnalyzeFatigue(feedback, s.tuning.Fatigue)

		step, err := periodization.Advance(periodization.StateOf(m), report.ShouldDeload)
		if err != nil {
			return err
		}
		fromWeek := m.CurrentWeek
		step.Apply(&m)
		m.UpdatedAt = now
		if err := tx.UpdateMesocycle(ctx, m); err != nil {
			return err
		}

		res = AdvanceResult{
			MesocycleID:       m.ID,
			NewWeek:           m.CurrentWeek,
			Phase:             m.Phase,
			Transition:        step,
			VolumeAdjustments: []periodization.VolumeTarget{},
			Fatigue:           report,
		}
		if step.Completed() {
			res.MesocycleComplete = true
			res.Recommendation = CompletionRecommendation
			return nil
		}

		targets, err := s.planWeek(ctx, tx, userID, fromWeek, m, now)
		if err != nil {
			return err
		}
		res.VolumeAdjustments = targets

		sessions, err := tx.ListSessions(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		next, err := periodization.GenerateWeek(periodization.WeekInput{
			Mesocycle: m,
			Sessions:  sessions,
			Targets:   targets,
			Catalog:   s.catalog,
			Tuning:    s.tuning,
		})
		if err != nil {
			return err
		}
		for _, sess := range next {
			if err := tx.InsertSession(ctx, sess); err != nil {
				return fmt.Errorf("inserting week %d session: %w", m.CurrentWeek, err)
			}
		}
		res.Sessions = next
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	s.metrics.observeStep(res.Transition)
	if res.MesocycleComplete {
		s.logger.Info("mesocycle complete", "user_id", userID, "mesocycle_id", mesocycleID)
	} else {
		s.logger.Info("week advanced",
			"user_id", userID,
			"mesocycle_id", mesocycleID,
			"week", res.NewWeek,
			"phase", res.Phase,
			"trigger", res.Transition.Trigger,
			"fatigue_score", res.Fatigue.FatigueScore,
			"sessions", len(res.Sessions),
		)
	}
	return res, nil
}

// planWeek runs the planner from fromWeek for every landmark of the user and
// writes the resulting targets. A deload phase forces the deload branch so the
// planner agrees with the phase machine after a fatigue-triggered deload.
func (s *Service) planWeek(ctx context.Context, tx models.Tx, userID, fromWeek int, m models.Mesocycle, now time.Time) ([]periodization.VolumeTarget, error) {
	current, err := tx.ListLandmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing landmarks: %w", err)
	}
	ids := make([]int, 0, len(current))
	for _, l := range current {
		ids = append(ids, l.MuscleGroupID)
	}
	locked, err := tx.LockLandmarks(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	landmarks := make([]models.Landmark, 0, len(ids))
	for _, id := range ids {
		if l, ok := locked[id]; ok {
			landmarks = append(landmarks, l)
		}
	}

	deload := m.Phase == models.PhaseDeload
	targets := periodization.PlanVolume(landmarks, fromWeek, m.TotalWeeks, deload, s.tuning.Planner)
	for _, t := range targets {
		l := periodization.ApplyTarget(locked[t.MuscleGroupID], t, now)
		if err := models.ValidateBoundaries(l.MEV, l.MAV, l.MRV); err != nil {
			return nil, err
		}
		if t.Phase != models.PhaseDeload && (l.TargetVolume < l.MEV || l.TargetVolume > l.MRV) {
			return nil, models.Invariant("target volume within bounds", "muscle group %d target=%d", l.MuscleGroupID, l.TargetVolume)
		}
		if err := tx.UpsertLandmark(ctx, l); err != nil {
			return nil, err
		}
	}
	return targets, nil
}
