package coach

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
)

// CreateMesocycleInput describes a new mesocycle. Exactly one of TemplateID
// and Days seeds week 1.
type CreateMesocycleInput struct {
	Name       string               `json:"name"`
	TotalWeeks int                  `json:"total_weeks"`
	StartDate  time.Time            `json:"start_date"`
	TemplateID *int                 `json:"template_id,omitempty"`
	Days       []models.TemplateDay `json:"days,omitempty"`
}

// CreateMesocycle deactivates the user's other mesocycles, creates the new one
// at week 1 in accumulation, seeds week 1 from the program, and creates
// landmarks from catalog defaults for every trained muscle group the user has
// none for yet.
func (s *Service) CreateMesocycle(ctx context.Context, userID int, in CreateMesocycleInput) (MesocycleDetail, error) {
	days, err := s.resolveProgram(in)
	if err != nil {
		return MesocycleDetail{}, err
	}

	now := s.now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	m, err := models.NewMesocycle(userID, in.Name, in.TotalWeeks, start, now)
	if err != nil {
		return MesocycleDetail{}, err
	}
	m.TemplateID = in.TemplateID
	sessions, err := seedWeek(m, days)
	if err != nil {
		return MesocycleDetail{}, err
	}

	var deactivated int64
	err = s.store.Update(ctx, func(tx models.Tx) error {
		var err error
		if deactivated, err = tx.DeactivateMesocycles(ctx, userID); err != nil {
			return err
		}
		if err := tx.InsertMesocycle(ctx, m); err != nil {
			return err
		}
		for _, sess := range sessions {
			if err := tx.InsertSession(ctx, sess); err != nil {
				return err
			}
		}
		return s.ensureLandmarks(ctx, tx, userID, trainedMuscles(days, s.catalog), now)
	})
	if err != nil {
		return MesocycleDetail{}, fmt.Errorf("creating mesocycle: %w", err)
	}

	s.logger.Info("mesocycle created",
		"user_id", userID,
		"mesocycle_id", m.ID,
		"total_weeks", m.TotalWeeks,
		"sessions", len(sessions),
		"deactivated", deactivated,
	)
	return MesocycleDetail{Mesocycle: m, Sessions: sessions}, nil
}

func (s *Service) resolveProgram(in CreateMesocycleInput) ([]models.TemplateDay, error) {
	switch {
	case in.TemplateID != nil && len(in.Days) > 0:
		return nil, models.Invariant("one program source", "both template_id and days given")
	case in.TemplateID != nil:
		t, ok := s.catalog.Template(*in.TemplateID)
		if !ok {
			return nil, models.NotFound("template", *in.TemplateID)
		}
		return t.Days, nil
	case in.Days != nil:
		if err := s.catalog.ValidateDays(in.Days); err != nil {
			return nil, err
		}
		return in.Days, nil
	}
	return nil, models.Missing("template_id or days")
}

// seedWeek materializes week 1. Sessions fall on start + (day-1) days.
func seedWeek(m models.Mesocycle, days []models.TemplateDay) ([]models.Session, error) {
	ordered := append([]models.TemplateDay(nil), days...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Day < ordered[j].Day })

	out := make([]models.Session, 0, len(ordered))
	for _, d := range ordered {
		sess := models.Session{
			ID:          uuid.New(),
			MesocycleID: m.ID,
			UserID:      m.UserID,
			Week:        1,
			Day:         d.Day,
			Name:        d.Name,
			Date:        m.StartDate.AddDate(0, 0, d.Day-1),
			Exercises:   make([]models.SessionExercise, 0, len(d.Exercises)),
		}
		for i, te := range d.Exercises {
			cfg, err := te.MethodConfig.JSON()
			if err != nil {
				return nil, models.Invariant("method config is a JSON object", "exercise %d: %v", te.ExerciseID, err)
			}
			sess.Exercises = append(sess.Exercises, models.SessionExercise{
				ID:            uuid.New(),
				SessionID:     sess.ID,
				Position:      i + 1,
				ExerciseID:    te.ExerciseID,
				Sets:          te.Sets,
				TargetReps:    te.TargetReps,
				Weight:        te.Weight,
				RPE:           te.RPE,
				RIR:           te.RIR,
				RestPeriod:    te.RestPeriod,
				SpecialMethod: te.SpecialMethod,
				MethodConfig:  cfg,
			})
		}
		out = append(out, sess)
	}
	return out, nil
}

// trainedMuscles lists every muscle group the program's exercises contribute
// to, in ascending id order.
func trainedMuscles(days []models.TemplateDay, cat models.Catalog) []int {
	seen := make(map[int]bool)
	for _, d := range days {
		for _, te := range d.Exercises {
			ex, ok := cat.Exercise(te.ExerciseID)
			if !ok {
				continue
			}
			for _, c := range ex.Muscles {
				seen[c.MuscleGroupID] = true
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Service) ensureLandmarks(ctx context.Context, tx models.Tx, userID int, muscleGroupIDs []int, now time.Time) error {
	locked, err := tx.LockLandmarks(ctx, userID, muscleGroupIDs)
	if err != nil {
		return err
	}
	for _, id := range muscleGroupIDs {
		if _, ok := locked[id]; ok {
			continue
		}
		l, err := s.landmarkFor(locked, userID, id, now)
		if err != nil {
			return err
		}
		if err := tx.UpsertLandmark(ctx, l); err != nil {
			return err
		}
	}
	return nil
}
