package models

import (
	"encoding/json"
	"fmt"
)

// Contribution roles of a muscle group in an exercise.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// MuscleGroup is a catalog muscle group with its default volume landmarks.
type MuscleGroup struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	DefaultMEV int    `json:"default_mev" yaml:"mev"`
	DefaultMAV int    `json:"default_mav" yaml:"mav"`
	DefaultMRV int    `json:"default_mrv" yaml:"mrv"`
}

// Contribution maps exercise sets onto a muscle group.
type Contribution struct {
	MuscleGroupID int     `json:"muscle_group_id" yaml:"muscle_group"`
	Role          string  `json:"role" yaml:"role"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
}

// Exercise is a catalog exercise.
type Exercise struct {
	ID       int            `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Category string         `json:"category" yaml:"category"`
	Muscles  []Contribution `json:"muscles" yaml:"muscles"`
}

// PrimaryMuscle returns the primary contribution, or the largest one when
// none is tagged primary. ok is false for exercises without contributions.
func (e Exercise) PrimaryMuscle() (Contribution, bool) {
	var best Contribution
	found := false
	for _, c := range e.Muscles {
		if c.Role == RolePrimary {
			return c, true
		}
		if !found || c.Percentage > best.Percentage {
			best = c
			found = true
		}
	}
	return best, found
}

// Template is an ordered list of training days used to seed week 1.
type Template struct {
	ID   int           `json:"id" yaml:"id"`
	Name string        `json:"name" yaml:"name"`
	Days []TemplateDay `json:"days" yaml:"days"`
}

// TemplateDay is one training day of a template. Day is 1-7 within the week.
type TemplateDay struct {
	Day       int                `json:"day" yaml:"day"`
	Name      string             `json:"name" yaml:"name"`
	Exercises []TemplateExercise `json:"exercises" yaml:"exercises"`
}

// TemplateExercise is the static default prescription for an exercise.
type TemplateExercise struct {
	ExerciseID    int      `json:"exercise_id" yaml:"exercise"`
	Sets          int      `json:"sets" yaml:"sets"`
	TargetReps    string   `json:"target_reps" yaml:"reps"`
	RestPeriod    int      `json:"rest_period" yaml:"rest"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	RPE           *float64 `json:"rpe,omitempty" yaml:"rpe,omitempty"`
	RIR           *int     `json:"rir,omitempty" yaml:"rir,omitempty"`
	SpecialMethod string   `json:"special_method,omitempty" yaml:"method,omitempty"`

	MethodConfig MethodConfig `json:"method_config,omitempty" yaml:"method_config,omitempty"`
}

// MethodConfig parameterizes a special method, e.g. {"drops": 2} for a drop set.
type MethodConfig map[string]any

// JSON encodes c for the session exercise's method config column. An empty
// config encodes to nil.
func (c MethodConfig) JSON() (json.RawMessage, error) {
	if len(c) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding method config: %w", err)
	}
	return b, nil
}

// Catalog is the read-only exercise/template collaborator.
type Catalog interface {
	Exercise(id int) (Exercise, bool)
	MuscleGroup(id int) (MuscleGroup, bool)
	Template(id int) (Template, bool)
}
