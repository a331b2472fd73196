package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is the post-session self-report. Immutable once stored.
type Feedback struct {
	ID              uuid.UUID `json:"id"`
	SessionID       uuid.UUID `json:"session_id"`
	UserID          int       `json:"user_id"`
	PumpQuality     int       `json:"pump_quality"`
	MuscleSoreness  int       `json:"muscle_soreness"`
	PerceivedEffort int       `json:"perceived_effort"`
	EnergyLevel     int       `json:"energy_level"`
	SleepQuality    int       `json:"sleep_quality"`
	CreatedAt       time.Time `json:"created_at"`
}

// FeedbackInput is the caller-facing shape. Pointer fields distinguish a
// missing rating from a zero.
type FeedbackInput struct {
	PumpQuality     *int `json:"pump_quality"`
	MuscleSoreness  *int `json:"muscle_soreness"`
	PerceivedEffort *int `json:"perceived_effort"`
	EnergyLevel     *int `json:"energy_level"`
	SleepQuality    *int `json:"sleep_quality"`
}

// NewFeedback validates in and returns a Feedback for the given session.
// Missing ratings are reported before range errors.
func NewFeedback(sessionID uuid.UUID, userID int, in FeedbackInput, now time.Time) (Feedback, error) {
	ratings := []struct {
		name string
		v    *int
	}{
		{"pump_quality", in.PumpQuality},
		{"muscle_soreness", in.MuscleSoreness},
		{"perceived_effort", in.PerceivedEffort},
		{"energy_level", in.EnergyLevel},
		{"sleep_quality", in.SleepQuality},
	}
	for _, r := range ratings {
		if r.v == nil {
			return Feedback{}, Missing(r.name)
		}
	}
	for _, r := range ratings {
		if *r.v < 1 || *r.v > 10 {
			return Feedback{}, Invariant("rating in [1,10]", "%s=%d", r.name, *r.v)
		}
	}
	return Feedback{
		ID:              uuid.New(),
		SessionID:       sessionID,
		UserID:          userID,
		PumpQuality:     *in.PumpQuality,
		MuscleSoreness:  *in.MuscleSoreness,
		PerceivedEffort: *in.PerceivedEffort,
		EnergyLevel:     *in.EnergyLevel,
		SleepQuality:    *in.SleepQuality,
		CreatedAt:       now,
	}, nil
}
