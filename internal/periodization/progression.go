package periodization

import (
	"math"

	"github.com/claude/repcycle/internal/models"
)

// LoadRule identifies which progression rule produced a prescription.
type LoadRule int

const (
	RuleNone LoadRule = iota
	RuleHardSet
	RuleModerateSet
	RuleEasySet
	RuleGrinder
	RuleNoRIR
	RuleCarryForward
)

func (r LoadRule) String() string {
	switch r {
	case RuleHardSet:
		return "hard_set"
	case RuleModerateSet:
		return "moderate_set"
	case RuleEasySet:
		return "easy_set"
	case RuleGrinder:
		return "grinder"
	case RuleNoRIR:
		return "no_rir"
	case RuleCarryForward:
		return "carry_forward"
	}
	return "none"
}

// LoadPrescription is next week's load, effort, and starting reps for one exercise.
type LoadPrescription struct {
	Weight        *float64
	RPE           *float64
	RIR           *int
	SuggestedReps *int
	Rule          LoadRule
}

// ProgressLoad classifies the last completed performance of an exercise and
// applies the first matching rule:
//
//  1. rpe >= 8 and rir <= 1 (or unset)  weight x1.025, rpe into [7,8], rir+1 up to 2
//  2. 6 <= rpe <= 7 and 2 <= rir <= 3   weight x1.05, rpe into [7,8], rir into [1,2]
//  3. rpe < 6 and rir >= 4              weight x1.075, rpe into [7,8], rir-1 down to 1
//  4. rpe >= 9                          weight x0.975, rpe 8, rir 2
//  5. 6 <= rpe <= 8 and rir unset       weight x1.025, rpe kept, rir 2
//  6. anything else                     carried forward, rir 2 if unset
//
// Missing RPE always lands in rule 6. Missing weight leaves the load unset.
func ProgressLoad(last models.SessionExercise, t LoadTuning) LoadPrescription {
	p := LoadPrescription{Rule: RuleCarryForward}
	multiplier := 1.0
	rpe, rir := last.RPE, last.RIR

	switch {
	case rpe == nil:
		p.RIR = intOr(rir, t.DefaultRIR)
	case *rpe >= 8 && (rir == nil || *rir <= 1):
		p.Rule = RuleHardSet
		multiplier = t.HardSetIncrease
		p.RPE = floatPtr(clampFloat(*rpe, 7, 8))
		prev := 0
		if rir != nil {
			prev = *rir
		}
		p.RIR = intPtr(min(2, prev+1))
	case *rpe >= 6 && *rpe <= 7 && rir != nil && *rir >= 2 && *rir <= 3:
		p.Rule = RuleModerateSet
		multiplier = t.ModerateSetIncrease
		p.RPE = floatPtr(clampFloat(*rpe, 7, 8))
		p.RIR = intPtr(max(1, min(2, *rir)))
	case *rpe < 6 && rir != nil && *rir >= 4:
		p.Rule = RuleEasySet
		multiplier = t.EasySetIncrease
		p.RPE = floatPtr(clampFloat(*rpe, 7, 8))
		p.RIR = intPtr(max(1, *rir-1))
	case *rpe >= 9:
		p.Rule = RuleGrinder
		multiplier = t.GrinderBackoff
		p.RPE = floatPtr(8)
		p.RIR = intPtr(2)
	case *rpe >= 6 && *rpe <= 8 && rir == nil:
		p.Rule = RuleNoRIR
		multiplier = t.DefaultIncrease
		p.RPE = floatPtr(*rpe)
		p.RIR = intPtr(2)
	default:
		p.RPE = floatPtr(*rpe)
		p.RIR = intOr(rir, t.DefaultRIR)
	}

	if last.Weight != nil {
		w := *last.Weight
		if multiplier != 1 {
			w = RoundToStep(w*multiplier, t.Step)
		}
		p.Weight = &w
	}
	p.SuggestedReps = suggestReps(last, p.Weight)
	return p
}

// suggestReps derives next week's starting reps from last week's first set:
// one fewer after a load increase, one more after a decrease.
func suggestReps(last models.SessionExercise, next *float64) *int {
	reps := last.Reps()
	if len(reps) == 0 {
		return nil
	}
	first := reps[0]
	if last.Weight != nil && next != nil {
		switch {
		case *next > *last.Weight:
			first--
		case *next < *last.Weight:
			first++
		}
	}
	if first < 1 {
		first = 1
	}
	return &first
}

// RoundToStep rounds v to the nearest multiple of step.
func RoundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// ProgressSets scales a week-1 set count by the flat weekly progression factor.
func ProgressSets(base, week int, t PlannerTuning) int {
	factor := 1 + t.SetProgressionPerWeek*float64(week-1)
	return max(1, roundSets(float64(base)*factor))
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func intOr(v *int, def int) *int {
	if v == nil {
		return intPtr(def)
	}
	return intPtr(*v)
}
