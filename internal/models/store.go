package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an identity resolved from the transport layer.
type User struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Reader is the read side of the store. Lookups of a single entity return a
// *NotFoundError when it does not exist.
type Reader interface {
	GetMesocycle(ctx context.Context, id uuid.UUID) (Mesocycle, error)
	ActiveMesocycle(ctx context.Context, userID int) (Mesocycle, error)
	// ListSessions returns the mesocycle's sessions ordered by week then day,
	// each with its exercises ordered by position.
	ListSessions(ctx context.Context, mesocycleID uuid.UUID) ([]Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (Session, error)
	SessionForExercise(ctx context.Context, exerciseRowID uuid.UUID) (Session, error)
	ListLandmarks(ctx context.Context, userID int) ([]Landmark, error)
	FeedbackSince(ctx context.Context, userID int, since time.Time) ([]Feedback, error)
	FeedbackForSession(ctx context.Context, sessionID uuid.UUID) (Feedback, error)
}

// Tx is a unit of work. Everything written through a Tx becomes visible
// atomically when the enclosing Update returns nil, and not at all otherwise.
type Tx interface {
	Reader
	// LockMesocycle reads the mesocycle and holds it against concurrent writers
	// until the transaction ends.
	LockMesocycle(ctx context.Context, id uuid.UUID) (Mesocycle, error)
	// LockLandmarks reads and holds the user's landmark rows for the given
	// muscle groups. Missing rows are absent from the result.
	LockLandmarks(ctx context.Context, userID int, muscleGroupIDs []int) (map[int]Landmark, error)
	InsertMesocycle(ctx context.Context, m Mesocycle) error
	UpdateMesocycle(ctx context.Context, m Mesocycle) error
	// DeactivateMesocycles clears is_active on every mesocycle of the user.
	DeactivateMesocycles(ctx context.Context, userID int) (int64, error)
	DeleteMesocycle(ctx context.Context, id uuid.UUID) error
	InsertSession(ctx context.Context, s Session) error
	UpdateSession(ctx context.Context, s Session) error
	UpdateExercise(ctx context.Context, e SessionExercise) error
	InsertFeedback(ctx context.Context, f Feedback) error
	UpsertLandmark(ctx context.Context, l Landmark) error
}

// Store is implemented by every persistence backend.
type Store interface {
	// Update runs fn in a transaction and commits only if fn returns nil.
	Update(ctx context.Context, fn func(Tx) error) error
	// View runs fn against a consistent snapshot.
	View(ctx context.Context, fn func(Reader) error) error
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
}
