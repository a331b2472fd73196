package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one planned training day inside a mesocycle week.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	MesocycleID uuid.UUID         `json:"mesocycle_id"`
	UserID      int               `json:"user_id"`
	Week        int               `json:"week"`
	Day         int               `json:"day"`
	Name        string            `json:"name"`
	Date        time.Time         `json:"date"`
	IsCompleted bool              `json:"is_completed"`
	TotalVolume float64           `json:"total_volume"`
	DurationSec int               `json:"duration_sec"`
	Exercises   []SessionExercise `json:"exercises"`
}

// Special set techniques an exercise may be prescribed with.
const (
	MethodMyoRepMatch = "myo_rep_match"
	MethodDropSet     = "drop_set"
	MethodRestPause   = "rest_pause"
	MethodGiantSet    = "giant_set"
)

// SessionExercise is one exercise prescription within a session, plus what
// the trainee actually logged against it.
type SessionExercise struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	Position      int             `json:"position"`
	ExerciseID    int             `json:"exercise_id"`
	Sets          int             `json:"sets"`
	TargetReps    string          `json:"target_reps"`
	ActualReps    *string         `json:"actual_reps,omitempty"`
	Weight        *float64        `json:"weight,omitempty"`
	RPE           *float64        `json:"rpe,omitempty"`
	RIR           *int            `json:"rir,omitempty"`
	RestPeriod    int             `json:"rest_period"`
	SuggestedReps *int            `json:"suggested_reps,omitempty"`
	SpecialMethod string          `json:"special_method,omitempty"`
	MethodConfig  json.RawMessage `json:"method_config,omitempty"`
	IsCompleted   bool            `json:"is_completed"`
}

// ValidateLog checks the ranges of logged intensity fields.
func (e SessionExercise) ValidateLog() error {
	if e.RPE != nil && (*e.RPE < 0 || *e.RPE > 10) {
		return Invariant("rpe in [0,10]", "rpe=%v", *e.RPE)
	}
	if e.RIR != nil && *e.RIR < 0 {
		return Invariant("rir >= 0", "rir=%d", *e.RIR)
	}
	if e.Weight != nil && *e.Weight < 0 {
		return Invariant("weight >= 0", "weight=%v", *e.Weight)
	}
	if e.Sets < 1 {
		return Invariant("sets >= 1", "sets=%d", e.Sets)
	}
	return nil
}

// Reps returns the logged per-set rep counts. Blank entries are skipped.
func (e SessionExercise) Reps() []int {
	if e.ActualReps == nil {
		return nil
	}
	return ParseReps(*e.ActualReps)
}

// CompletedSets is the number of sets with a logged rep count. An exercise
// marked completed without a rep log counts all of its planned sets.
func (e SessionExercise) CompletedSets() int {
	if n := len(e.Reps()); n > 0 {
		return n
	}
	if e.IsCompleted {
		return e.Sets
	}
	return 0
}

// Tonnage is weight x total reps, zero when no weight was logged.
func (e SessionExercise) Tonnage() float64 {
	if e.Weight == nil {
		return 0
	}
	total := 0
	for _, r := range e.Reps() {
		total += r
	}
	return *e.Weight * float64(total)
}

// ParseReps parses "10,9,8" into []int{10, 9, 8}. Non-numeric entries are dropped.
func ParseReps(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FormatReps is the inverse of ParseReps.
func FormatReps(reps []int) string {
	parts := make([]string, len(reps))
	for i, r := range reps {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ",")
}

// RepRange parses a target like "8-12" or "10". ok is false for anything else.
func RepRange(target string) (lo, hi int, ok bool) {
	target = strings.TrimSpace(target)
	if a, b, found := strings.Cut(target, "-"); found {
		lo, err1 := strconv.Atoi(strings.TrimSpace(a))
		hi, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil || lo <= 0 || hi < lo {
			return 0, 0, false
		}
		return lo, hi, true
	}
	n, err := strconv.Atoi(target)
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	return n, n, true
}
