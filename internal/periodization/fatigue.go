package periodization

import (
	"fmt"
	"time"

	"github.com/claude/repcycle/internal/models"
)

// FeedbackAverages are the per-field means over a feedback window.
type FeedbackAverages struct {
	PumpQuality     float64 `json:"pump_quality"`
	MuscleSoreness  float64 `json:"muscle_soreness"`
	PerceivedEffort float64 `json:"perceived_effort"`
	EnergyLevel     float64 `json:"energy_level"`
	SleepQuality    float64 `json:"sleep_quality"`
}

// FatigueReport is the Fatigue Analyzer's verdict over a feedback window.
type FatigueReport struct {
	ShouldDeload bool              `json:"should_deload"`
	FatigueScore float64           `json:"fatigue_score"`
	Reasons      []string          `json:"reasons"`
	SampleSize   int               `json:"sample_size"`
	Averages     *FeedbackAverages `json:"averages,omitempty"`
}

// WindowStart returns the earliest feedback timestamp that falls in the
// trailing window ending at now.
func (t FatigueTuning) WindowStart(now time.Time) time.Time {
	return now.Add(-t.Window)
}

// AnalyzeFatigue scores a window of feedback. An empty window is not an
// error: it yields no deload, a zero score and no reasons.
//
// Ratings are summed as integers before dividing so the result does not
// depend on the order of the rows.
func AnalyzeFatigue(feedback []models.Feedback, t FatigueTuning) FatigueReport {
	if len(feedback) == 0 {
		return FatigueReport{Reasons: []string{}}
	}

	var pump, soreness, effort, energy, sleep int
	for _, f := range feedback {
		pump += f.PumpQuality
		soreness += f.MuscleSoreness
		effort += f.PerceivedEffort
		energy += f.EnergyLevel
		sleep += f.SleepQuality
	}
	n := float64(len(feedback))
	avg := FeedbackAverages{
		PumpQuality:     float64(pump) / n,
		MuscleSoreness:  float64(soreness) / n,
		PerceivedEffort: float64(effort) / n,
		EnergyLevel:     float64(energy) / n,
		SleepQuality:    float64(sleep) / n,
	}

	score := t.PumpWeight*(10-avg.PumpQuality) +
		t.SorenessWeight*avg.MuscleSoreness +
		t.EffortWeight*avg.PerceivedEffort +
		t.EnergyWeight*(10-avg.EnergyLevel) +
		t.SleepWeight*(10-avg.SleepQuality)
	score = clampFloat(score, 0, 10)

	reasons := []string{}
	if avg.PumpQuality < t.MinPump {
		reasons = append(reasons, fmt.Sprintf("low pump quality (avg %.1f < %g)", avg.PumpQuality, t.MinPump))
	}
	if avg.MuscleSoreness > t.MaxSoreness {
		reasons = append(reasons, fmt.Sprintf("high muscle soreness (avg %.1f > %g)", avg.MuscleSoreness, t.MaxSoreness))
	}
	if avg.PerceivedEffort > t.MaxEffort {
		reasons = append(reasons, fmt.Sprintf("high perceived effort (avg %.1f > %g)", avg.PerceivedEffort, t.MaxEffort))
	}
	if avg.EnergyLevel < t.MinEnergy {
		reasons = append(reasons, fmt.Sprintf("low energy (avg %.1f < %g)", avg.EnergyLevel, t.MinEnergy))
	}
	if avg.SleepQuality < t.MinSleep {
		reasons = append(reasons, fmt.Sprintf("poor sleep (avg %.1f < %g)", avg.SleepQuality, t.MinSleep))
	}
	if score > t.CompositeThreshold {
		reasons = append(reasons, fmt.Sprintf("fatigue score %.2f above %g", score, t.CompositeThreshold))
	}

	return FatigueReport{
		ShouldDeload: len(reasons) > 0,
		FatigueScore: score,
		Reasons:      reasons,
		SampleSize:   len(feedback),
		Averages:     &avg,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
