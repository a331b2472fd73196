package periodization

import "github.com/claude/repcycle/internal/models"

// Trigger names why a phase transition happened.
type Trigger string

const (
	TriggerNone     Trigger = ""
	TriggerFatigue  Trigger = "fatigue"
	TriggerSchedule Trigger = "schedule"
	TriggerComplete Trigger = "complete"
)

// State is the lifecycle state of a mesocycle as seen by the phase machine.
// Active=false is the terminal state.
type State struct {
	Week       int          `json:"week"`
	TotalWeeks int          `json:"total_weeks"`
	Phase      models.Phase `json:"phase"`
	Active     bool         `json:"active"`
}

// StateOf extracts the machine state from a mesocycle.
func StateOf(m models.Mesocycle) State {
	return State{Week: m.CurrentWeek, TotalWeeks: m.TotalWeeks, Phase: m.Phase, Active: m.IsActive}
}

// Complete reports whether s is the terminal state.
func (s State) Complete() bool {
	return !s.Active
}

// Step is the outcome of one week-advance.
type Step struct {
	From    State   `json:"from"`
	To      State   `json:"to"`
	Trigger Trigger `json:"trigger,omitempty"`
}

// PhaseChanged reports whether the step moved to a different phase.
func (s Step) PhaseChanged() bool {
	return s.From.Phase != s.To.Phase
}

// Completed reports whether the step ended the mesocycle.
func (s Step) Completed() bool {
	return s.Trigger == TriggerComplete
}

// Apply writes the step's target state onto m.
func (s Step) Apply(m *models.Mesocycle) {
	m.CurrentWeek = s.To.Week
	m.Phase = s.To.Phase
	m.IsActive = s.To.Active
}

// Advance is the single transition function of the phase machine. It is
// evaluated on the week being left:
//
//	week == totalWeeks                       -> terminal (inactive, deload)
//	deloadRecommended                        -> deload
//	accumulation and week >= totalWeeks-1    -> intensification
//	intensification and week >= totalWeeks   -> deload
//	otherwise                                -> same phase, week+1
//
// Deload is absorbing until completion. Advancing a terminal state is an
// invariant violation, never a second completion.
func Advance(s State, deloadRecommended bool) (Step, error) {
	if !s.Active {
		return Step{}, models.Invariant("mesocycle is active", "week=%d total_weeks=%d", s.Week, s.TotalWeeks)
	}
	if s.Week < 1 || s.Week > s.TotalWeeks {
		return Step{}, models.Invariant("1 <= current_week <= total_weeks", "week=%d total_weeks=%d", s.Week, s.TotalWeeks)
	}
	if !s.Phase.Valid() {
		return Step{}, models.Invariant("known phase", "phase=%q", s.Phase)
	}

	step := Step{From: s, To: s}
	if s.Week == s.TotalWeeks {
		step.To = State{Week: s.TotalWeeks + 1, TotalWeeks: s.TotalWeeks, Phase: models.PhaseDeload, Active: false}
		step.Trigger = TriggerComplete
		return step, nil
	}

	step.To.Week = s.Week + 1
	switch {
	case deloadRecommended:
		step.To.Phase = models.PhaseDeload
		if s.Phase != models.PhaseDeload {
			step.Trigger = TriggerFatigue
		}
	case s.Phase == models.PhaseAccumulation && s.Week >= s.TotalWeeks-1:
		step.To.Phase = models.PhaseIntensification
		step.Trigger = TriggerSchedule
	case s.Phase == models.PhaseIntensification && s.Week >= s.TotalWeeks:
		step.To.Phase = models.PhaseDeload
		step.Trigger = TriggerSchedule
	}
	return step, nil
}
