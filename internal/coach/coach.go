// Package coach exposes the mesocycle operations. Every mutating operation is
// a single Store.Update, so a failure anywhere leaves no partial state.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// Catalog is the exercise catalog plus program validation.
type Catalog interface {
	models.Catalog
	MuscleGroups() []models.MuscleGroup
	ValidateDays(days []models.TemplateDay) error
}

// Service runs the periodization engine against a store.
type Service struct {
	store   models.Store
	catalog Catalog
	tuning  periodization.Tuning
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Service. metrics may be nil.
func New(store models.Store, cat Catalog, tuning periodization.Tuning, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		tuning:  tuning,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Catalog returns the catalog the service plans against.
func (s *Service) Catalog() Catalog {
	return s.catalog
}

// MesocycleDetail is a mesocycle with its sessions.
type MesocycleDetail struct {
	models.Mesocycle
	Sessions []models.Session `json:"sessions"`
}

// ownedMesocycle reads a mesocycle and hides other users' rows behind NotFound.
func ownedMesocycle(ctx context.Context, r models.Reader, userID int, id uuid.UUID) (models.Mesocycle, error) {
	m, err := r.GetMesocycle(ctx, id)
	if err != nil {
		return models.Mesocycle{}, err
	}
	if m.UserID != userID {
		return models.Mesocycle{}, models.NotFound("mesocycle", id)
	}
	return m, nil
}

func ownedSession(ctx context.Context, r models.Reader, userID int, id uuid.UUID) (models.Session, error) {
	sess, err := r.GetSession(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if sess.UserID != userID {
		return models.Session{}, models.NotFound("session", id)
	}
	return sess, nil
}

func detailOf(ctx context.Context, r models.Reader, m models.Mesocycle) (MesocycleDetail, error) {
	sessions, err := r.ListSessions(ctx, m.ID)
	if err != nil {
		return MesocycleDetail{}, fmt.Errorf("listing sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return MesocycleDetail{Mesocycle: m, Sessions: sessions}, nil
}

// GetMesocycle returns one of the user's mesocycles with all of its sessions.
func (s *Service) GetMesocycle(ctx context.Context, userID int, id uuid.UUID) (MesocycleDetail, error) {
	var out MesocycleDetail
	err := s.store.View(ctx, func(r models.Reader) error {
		m, err := ownedMesocycle(ctx, r, userID, id)
		if err != nil {
			return err
		}
		out, err = detailOf(ctx, r, m)
		return err
	})
	return out, err
}

// GetActiveMesocycle returns the user's active mesocycle with its sessions.
func (s *Service) GetActiveMesocycle(ctx context.Context, userID int) (MesocycleDetail, error) {
	var out MesocycleDetail
	err := s.store.View(ctx, func(r models.Reader) error {
		m, err := r.ActiveMesocycle(ctx, userID)
		if err != nil {
			return err
		}
		out, err = detailOf(ctx, r, m)
		return err
	})
	return out, err
}

// GetSession returns one of the user's sessions.
func (s *Service) GetSession(ctx context.Context, userID int, id uuid.UUID) (models.Session, error) {
	var out models.Session
	err := s.store.View(ctx, func(r models.Reader) error {
		var err error
		out, err = ownedSession(ctx, r, userID, id)
		return err
	})
	return out, err
}

// DeleteMesocycle removes the mesocycle together with its sessions, exercises
// and feedback.
func (s *Service) DeleteMesocycle(ctx context.Context, userID int, id uuid.UUID) error {
	err := s.store.Update(ctx, func(tx models.Tx) error {
		if _, err := ownedMesocycle(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.DeleteMesocycle(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("mesocycle deleted", "user_id", userID, "mesocycle_id", id)
	return nil
}

// landmarkFor returns the stored landmark, or one built from the catalog
// defaults when the user has none for the muscle group yet.
func (s *Service) landmarkFor(locked map[int]models.Landmark, userID, muscleGroupID int, now time.Time) (models.Landmark, error) {
	if l, ok := locked[muscleGroupID]; ok {
		return l, nil
	}
	mg, ok := s.catalog.MuscleGroup(muscleGroupID)
	if !ok {
		return models.Landmark{}, models.NotFound("muscle group", muscleGroupID)
	}
	l, err := models.NewLandmark(userID, muscleGroupID, mg.DefaultMEV, mg.DefaultMAV, mg.DefaultMRV, now)
	if err != nil {
		return models.Landmark{}, fmt.Errorf("muscle group %q defaults: %w", mg.Name, err)
	}
	return l, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
