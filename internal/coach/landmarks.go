package coach

import (
	"context"
	"fmt"

	"github.com/claude/repcycle/internal/models"
)

// ListLandmarks returns the user's landmarks ordered by muscle group.
func (s *Service) ListLandmarks(ctx context.Context, userID int) ([]models.Landmark, error) {
	var out []models.Landmark
	err := s.store.View(ctx, func(r models.Reader) error {
		var err error
		out, err = r.ListLandmarks(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing landmarks: %w", err)
	}
	if out == nil {
		out = []models.Landmark{}
	}
	return out, nil
}

// SetLandmark overrides the boundaries of one muscle group. Current and
// target volume are pulled into the new [mev, mrv] range and the derived
// recovery and adaptation levels are kept.
func (s *Service) SetLandmark(ctx context.Context, userID, muscleGroupID, mev, mav, mrv int) (models.Landmark, error) {
	if _, ok := s.catalog.MuscleGroup(muscleGroupID); !ok {
		return models.Landmark{}, models.NotFound("muscle group", muscleGroupID)
	}
	if err := models.ValidateBoundaries(mev, mav, mrv); err != nil {
		return models.Landmark{}, err
	}

	now := s.now()
	var out models.Landmark
	err := s.store.Update(ctx, func(tx models.Tx) error {
		locked, err := tx.LockLandmarks(ctx, userID, []int{muscleGroupID})
		if err != nil {
			return err
		}
		l, ok := locked[muscleGroupID]
		if !ok {
			l, err = models.NewLandmark(userID, muscleGroupID, mev, mav, mrv, now)
			if err != nil {
				return err
			}
		} else {
			l.MEV, l.MAV, l.MRV = mev, mav, mrv
			l.CurrentVolume = l.ClampVolume(l.CurrentVolume, mev)
			l.TargetVolume = l.ClampVolume(l.TargetVolume, mev)
			l.LastUpdated = now
		}
		if err := l.Validate(mev); err != nil {
			return err
		}
		out = l
		return tx.UpsertLandmark(ctx, l)
	})
	if err != nil {
		return models.Landmark{}, err
	}
	s.logger.Info("landmark set", "user_id", userID, "muscle_group_id", muscleGroupID, "mev", mev, "mav", mav, "mrv", mrv)
	return out, nil
}
