package periodization

import (
	"math"
	"sort"
	"time"

	"github.com/claude/repcycle/internal/models"
)

// MuscleVolume is the contribution-weighted set volume a session put on one
// muscle group.
type MuscleVolume struct {
	MuscleGroupID int     `json:"muscle_group_id"`
	PlannedSets   float64 `json:"planned_sets"`
	CompletedSets float64 `json:"completed_sets"`
}

// Completion is completed / planned, 0 when nothing was planned.
func (v MuscleVolume) Completion() float64 {
	if v.PlannedSets <= 0 {
		return 0
	}
	return v.CompletedSets / v.PlannedSets
}

// SessionMuscleVolumes maps the session's exercises onto muscle groups,
// weighting each exercise's sets by its contribution percentage. Exercises
// unknown to the catalog are skipped. The result is ordered by muscle group id.
func SessionMuscleVolumes(s models.Session, cat models.Catalog) []MuscleVolume {
	byMuscle := make(map[int]*MuscleVolume)
	for _, e := range s.Exercises {
		ex, ok := cat.Exercise(e.ExerciseID)
		if !ok {
			continue
		}
		for _, c := range ex.Muscles {
			v, ok := byMuscle[c.MuscleGroupID]
			if !ok {
				v = &MuscleVolume{MuscleGroupID: c.MuscleGroupID}
				byMuscle[c.MuscleGroupID] = v
			}
			share := c.Percentage / 100
			v.PlannedSets += float64(e.Sets) * share
			v.CompletedSets += float64(e.CompletedSets()) * share
		}
	}
	out := make([]MuscleVolume, 0, len(byMuscle))
	for _, v := range byMuscle {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MuscleGroupID < out[j].MuscleGroupID })
	return out
}

// RecoveryScore = 0.3(10-soreness) + 0.3(10-effort) + 0.25 energy + 0.15 sleep.
func RecoveryScore(f models.Feedback) float64 {
	return 0.3*float64(10-f.MuscleSoreness) +
		0.3*float64(10-f.PerceivedEffort) +
		0.25*float64(f.EnergyLevel) +
		0.15*float64(f.SleepQuality)
}

// AdaptationScore is pump quality plus a bonus for hitting the planned volume:
// 1.0 at full completion, 0.5 x completion below it. Capped at 10.
func AdaptationScore(pumpQuality int, completion float64) float64 {
	bonus := 1.0
	if completion < 1 {
		bonus = 0.5 * math.Max(completion, 0)
	}
	return math.Min(10, float64(pumpQuality)+bonus)
}

// VolumeDelta buckets the joint recovery/adaptation reading into a set change.
func VolumeDelta(l models.Landmark, recovery, adaptation float64) int {
	atOrAboveMAV := l.CurrentVolume >= l.MAV
	switch {
	case recovery >= 8 && adaptation >= 8:
		if atOrAboveMAV {
			return 1
		}
		return 2
	case recovery >= 6 && adaptation >= 6:
		if atOrAboveMAV {
			return 0
		}
		return 1
	case recovery >= 4 && adaptation >= 4:
		return 0
	default:
		if l.CurrentVolume-2 < l.MEV {
			return -1
		}
		return -2
	}
}

// TargetHint is the updater's speculative next-week target. A strong reading
// adds a set but never suggests more than MAV. The weekly planner overwrites
// it at the next week advance.
func TargetHint(l models.Landmark, recovery, adaptation float64, floor int) int {
	cur := l.CurrentVolume
	var hint int
	switch {
	case recovery >= 7 && adaptation >= 7:
		hint = min(cur+1, l.MAV)
	case recovery >= 5 && adaptation >= 5:
		hint = cur
	default:
		hint = roundSets(math.Max(float64(cur-1), 0.8*float64(cur)))
	}
	return l.ClampVolume(hint, floor)
}

// Adjustment records one landmark update made from a session's feedback.
type Adjustment struct {
	MuscleGroupID   int     `json:"muscle_group_id"`
	RecoveryScore   float64 `json:"recovery_score"`
	AdaptationScore float64 `json:"adaptation_score"`
	Completion      float64 `json:"completion"`
	Delta           int     `json:"delta"`
	PreviousVolume  int     `json:"previous_volume"`
	CurrentVolume   int     `json:"current_volume"`
	TargetVolume    int     `json:"target_volume"`
}

// ApplyFeedback runs the auto-regulation update for one muscle group. floor is
// the lowest volume the landmark may hold: MEV normally, the deload target
// while the mesocycle is deloading.
func ApplyFeedback(l models.Landmark, f models.Feedback, v MuscleVolume, floor int, now time.Time) (models.Landmark, Adjustment) {
	recovery := RecoveryScore(f)
	adaptation := AdaptationScore(f.PumpQuality, v.Completion())
	delta := VolumeDelta(l, recovery, adaptation)

	prev := l.CurrentVolume
	l.CurrentVolume = l.ClampVolume(prev+delta, floor)
	l.TargetVolume = TargetHint(l, recovery, adaptation, floor)
	l.RecoveryLevel = level(recovery)
	l.AdaptationLevel = level(adaptation)
	l.LastUpdated = now

	return l, Adjustment{
		MuscleGroupID:   l.MuscleGroupID,
		RecoveryScore:   recovery,
		AdaptationScore: adaptation,
		Completion:      v.Completion(),
		Delta:           delta,
		PreviousVolume:  prev,
		CurrentVolume:   l.CurrentVolume,
		TargetVolume:    l.TargetVolume,
	}
}

func level(score float64) int {
	n := roundSets(score)
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
