package periodization

import (
	"math"
	"sort"
	"time"

	"github.com/claude/repcycle/internal/models"
)

// VolumeTarget is the planned weekly set count for one muscle group.
type VolumeTarget struct {
	MuscleGroupID int          `json:"muscle_group_id"`
	Week          int          `json:"week"`
	TargetSets    int          `json:"target_sets"`
	Phase         models.Phase `json:"phase"`
}

// ScheduledPhase is the phase the week-based plan assigns when planning from
// currentWeek: accumulation through totalWeeks-2, intensification at
// totalWeeks-1, deload from totalWeeks on.
func ScheduledPhase(currentWeek, totalWeeks int) models.Phase {
	switch {
	case currentWeek <= totalWeeks-2:
		return models.PhaseAccumulation
	case currentWeek == totalWeeks-1:
		return models.PhaseIntensification
	default:
		return models.PhaseDeload
	}
}

// DeloadTarget is round(factor * mev). It is the only target allowed below MEV.
func DeloadTarget(l models.Landmark, t PlannerTuning) int {
	return roundSets(t.DeloadFactor * float64(l.MEV))
}

// PlanTarget computes next week's set target for one landmark when planning
// from currentWeek. forceDeload selects the deload branch regardless of week.
func PlanTarget(l models.Landmark, currentWeek, totalWeeks int, forceDeload bool, t PlannerTuning) (int, models.Phase) {
	phase := ScheduledPhase(currentWeek, totalWeeks)
	if forceDeload {
		phase = models.PhaseDeload
	}

	var target float64
	switch phase {
	case models.PhaseAccumulation:
		step := 0.0
		if span := totalWeeks - 2; span > 0 {
			step = float64(l.MAV-l.MEV) / float64(span)
		}
		target = float64(l.MEV) + step*float64(currentWeek-1)
		if l.RecoveryLevel < t.PullBackBelowRecovery {
			target *= t.PullBackFactor
		}
		if l.RecoveryLevel > t.PushAboveRecovery && l.AdaptationLevel > t.PushAboveAdaptation {
			target = math.Min(target*t.PushForwardFactor, float64(l.MAV))
		}
	case models.PhaseIntensification:
		target = float64(l.MAV)
		if l.RecoveryLevel < t.IntensifyMinRecovery {
			target *= t.IntensifyBackoffFactor
		}
	case models.PhaseDeload:
		return DeloadTarget(l, t), phase
	}

	return l.ClampVolume(roundSets(target), l.MEV), phase
}

// PlanVolume plans next week for every landmark, ordered by muscle group id.
func PlanVolume(landmarks []models.Landmark, currentWeek, totalWeeks int, forceDeload bool, t PlannerTuning) []VolumeTarget {
	out := make([]VolumeTarget, 0, len(landmarks))
	for _, l := range landmarks {
		sets, phase := PlanTarget(l, currentWeek, totalWeeks, forceDeload, t)
		out = append(out, VolumeTarget{
			MuscleGroupID: l.MuscleGroupID,
			Week:          currentWeek + 1,
			TargetSets:    sets,
			Phase:         phase,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MuscleGroupID < out[j].MuscleGroupID })
	return out
}

// ApplyTarget writes a planned target onto the landmark. The planner's weekly
// write replaces whatever hint the auto-regulation updater left behind.
func ApplyTarget(l models.Landmark, target VolumeTarget, now time.Time) models.Landmark {
	l.TargetVolume = target.TargetSets
	l.LastUpdated = now
	return l
}

func roundSets(v float64) int {
	return int(math.Round(v))
}
