// Package periodization is the pure mesocycle engine: fatigue analysis,
// weekly volume planning, the phase state machine, per-session
// auto-regulation of volume landmarks, and next-week session generation.
//
// Nothing here touches storage. Every function is deterministic in its
// inputs, which is what lets the coach run it inside a store transaction.
package periodization

import "time"

// Tuning holds the empirically chosen constants of the engine.
type Tuning struct {
	Fatigue FatigueTuning
	Planner PlannerTuning
	Load    LoadTuning
}

// FatigueTuning weights the feedback averages into a fatigue score and sets
// the single-indicator deload thresholds.
type FatigueTuning struct {
	Window time.Duration

	PumpWeight     float64
	SorenessWeight float64
	EffortWeight   float64
	EnergyWeight   float64
	SleepWeight    float64

	// Deload when avg pump < MinPump, soreness > MaxSoreness, and so on.
	MinPump     float64
	MaxSoreness float64
	MaxEffort   float64
	MinEnergy   float64
	MinSleep    float64

	CompositeThreshold float64
}

// PlannerTuning shapes the weekly volume targets.
type PlannerTuning struct {
	PullBackBelowRecovery  int
	PullBackFactor         float64
	PushAboveRecovery      int
	PushAboveAdaptation    int
	PushForwardFactor      float64
	IntensifyMinRecovery   int
	IntensifyBackoffFactor float64
	DeloadFactor           float64
	SetProgressionPerWeek  float64
}

// LoadTuning holds the week-over-week load multipliers.
type LoadTuning struct {
	HardSetIncrease     float64 // rule 1
	ModerateSetIncrease float64 // rule 2
	EasySetIncrease     float64 // rule 3
	GrinderBackoff      float64 // rule 4
	DefaultIncrease     float64 // rule 5
	Step                float64
	DefaultRIR          int
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{
		Fatigue: FatigueTuning{
			Window:             7 * 24 * time.Hour,
			PumpWeight:         0.25,
			SorenessWeight:     0.20,
			EffortWeight:       0.20,
			EnergyWeight:       0.20,
			SleepWeight:        0.15,
			MinPump:            6,
			MaxSoreness:        7,
			MaxEffort:          8,
			MinEnergy:          5,
			MinSleep:           5,
			CompositeThreshold: 6.5,
		},
		Planner: PlannerTuning{
			PullBackBelowRecovery:  4,
			PullBackFactor:         0.8,
			PushAboveRecovery:      7,
			PushAboveAdaptation:    6,
			PushForwardFactor:      1.1,
			IntensifyMinRecovery:   6,
			IntensifyBackoffFactor: 0.9,
			DeloadFactor:           0.7,
			SetProgressionPerWeek:  0.10,
		},
		Load: LoadTuning{
			HardSetIncrease:     1.025,
			ModerateSetIncrease: 1.05,
			EasySetIncrease:     1.075,
			GrinderBackoff:      0.975,
			DefaultIncrease:     1.025,
			Step:                0.25,
			DefaultRIR:          2,
		},
	}
}
