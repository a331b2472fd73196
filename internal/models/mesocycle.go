package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the training phase of a mesocycle week.
type Phase string

const (
	PhaseAccumulation    Phase = "accumulation"
	PhaseIntensification Phase = "intensification"
	PhaseDeload          Phase = "deload"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseAccumulation, PhaseIntensification, PhaseDeload:
		return true
	}
	return false
}

// Mesocycle length limits in weeks.
const (
	MinTotalWeeks = 2
	MaxTotalWeeks = 16
)

// Mesocycle is a multi-week training block owned by one user.
type Mesocycle struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	TemplateID  *int      `json:"template_id,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CurrentWeek int       `json:"current_week"`
	TotalWeeks  int       `json:"total_weeks"`
	Phase       Phase     `json:"phase"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMesocycle returns an active mesocycle at week 1 in accumulation.
func NewMesocycle(userID int, name string, totalWeeks int, start, now time.Time) (Mesocycle, error) {
	if totalWeeks < MinTotalWeeks || totalWeeks > MaxTotalWeeks {
		return Mesocycle{}, Invariant("total weeks in range", "total_weeks=%d outside [%d,%d]", totalWeeks, MinTotalWeeks, MaxTotalWeeks)
	}
	if name == "" {
		name = "Mesocycle " + start.Format("2006-01-02")
	}
	return Mesocycle{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, totalWeeks*7),
		CurrentWeek: 1,
		TotalWeeks:  totalWeeks,
		Phase:       PhaseAccumulation,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks 1 <= current_week <= total_weeks+1 and a known phase.
func (m Mesocycle) Validate() error {
	if m.CurrentWeek < 1 || m.CurrentWeek > m.TotalWeeks+1 {
		return Invariant("1 <= current_week <= total_weeks+1", "current_week=%d total_weeks=%d", m.CurrentWeek, m.TotalWeeks)
	}
	if !m.Phase.Valid() {
		return Invariant("known phase", "phase=%q", m.Phase)
	}
	return nil
}
