package coach

import (
	"context"
	"fmt"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// Recommendations is a read-only preview of what AdvanceWeek would do now.
type Recommendations struct {
	ShouldDeload    bool                         `json:"should_deload"`
	NextWeekVolume  []periodization.VolumeTarget `json:"next_week_volume"`
	PhaseTransition *periodization.Step          `json:"phase_transition,omitempty"`
	FatigueFeedback periodization.FatigueReport  `json:"fatigue_feedback"`
	Mesocycle       *models.Mesocycle            `json:"mesocycle,omitempty"`
}

// GetRecommendations composes the fatigue analyzer, the planner and the phase
// machine over a snapshot without writing anything. Without an active
// mesocycle only the fatigue verdict is returned.
func (s *Service) GetRecommendations(ctx context.Context, userID int) (Recommendations, error) {
	now := s.now()
	rec := Recommendations{NextWeekVolume: []periodization.VolumeTarget{}}

	err := s.store.View(ctx, func(r models.Reader) error {
		feedback, err := r.FeedbackSince(ctx, userID, s.tuning.Fatigue.WindowStart(now))
		if err != nil {
			return fmt.Errorf("reading feedback window: %w", err)
		}
		report := periodization.AnalyzeFatigue(feedback, s.tuning.Fatigue)
		rec.ShouldDeload = report.ShouldDeload
		rec.FatigueFeedback = report

		m, err := r.ActiveMesocycle(ctx, userID)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		rec.Mesocycle = &m

		step, err := periodization.Advance(periodization.StateOf(m), report.ShouldDeload)
		if err != nil {
			return err
		}
		if step.PhaseChanged() || step.Completed() {
			rec.PhaseTransition = &step
		}
		if step.Completed() {
			return nil
		}

		landmarks, err := r.ListLandmarks(ctx, userID)
		if err != nil {
			return fmt.Errorf("listing landmarks: %w", err)
		}
		deload := step.To.Phase == models.PhaseDeload
		rec.NextWeekVolume = periodization.PlanVolume(landmarks, m.CurrentWeek, m.TotalWeeks, deload, s.tuning.Planner)
		return nil
	})
	if err != nil {
		return Recommendations{}, err
	}
	return rec, nil
}
