// Package catalog holds the read-only exercise, muscle group, and template
// collections used to seed mesocycles and map exercise sets onto muscle groups.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/claude/repcycle/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

type file struct {
	MuscleGroups []models.MuscleGroup `yaml:"muscle_groups"`
	Exercises    []models.Exercise    `yaml:"exercises"`
	Templates    []models.Template    `yaml:"templates"`
}

// Catalog is an immutable in-memory catalog. Safe for concurrent use.
type Catalog struct {
	muscles   map[int]models.MuscleGroup
	exercises map[int]models.Exercise
	templates map[int]models.Template
}

var _ models.Catalog = (*Catalog)(nil)

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		muscles:   make(map[int]models.MuscleGroup, len(f.MuscleGroups)),
		exercises: make(map[int]models.Exercise, len(f.Exercises)),
		templates: make(map[int]models.Template, len(f.Templates)),
	}

	for _, mg := range f.MuscleGroups {
		if _, dup := c.muscles[mg.ID]; dup {
			return nil, fmt.Errorf("duplicate muscle group id %d", mg.ID)
		}
		if err := models.ValidateBoundaries(mg.DefaultMEV, mg.DefaultMAV, mg.DefaultMRV); err != nil {
			return nil, fmt.Errorf("muscle group %q: %w", mg.Name, err)
		}
		c.muscles[mg.ID] = mg
	}

	for _, ex := range f.Exercises {
		if _, dup := c.exercises[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %d", ex.ID)
		}
		if len(ex.Muscles) == 0 {
			return nil, fmt.Errorf("exercise %q has no muscle contributions", ex.Name)
		}
		for _, m := range ex.Muscles {
			if _, ok := c.muscles[m.MuscleGroupID]; !ok {
				return nil, fmt.Errorf("exercise %q references unknown muscle group %d", ex.Name, m.MuscleGroupID)
			}
			if m.Percentage <= 0 || m.Percentage > 100 {
				return nil, fmt.Errorf("exercise %q: contribution %v outside (0,100]", ex.Name, m.Percentage)
			}
			if m.Role != models.RolePrimary && m.Role != models.RoleSecondary {
				return nil, fmt.Errorf("exercise %q: unknown role %q", ex.Name, m.Role)
			}
		}
		c.exercises[ex.ID] = ex
	}

	for _, t := range f.Templates {
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %d", t.ID)
		}
		if err := c.ValidateDays(t.Days); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		c.templates[t.ID] = t
	}

	return c, nil
}

// ValidateDays checks a program's days against the catalog: days 1-7 without
// repeats, known exercises, and at least one set per exercise. Custom programs
// submitted at mesocycle creation go through the same check as templates.
func (c *Catalog) ValidateDays(days []models.TemplateDay) error {
	if len(days) == 0 {
		return models.Missing("days")
	}
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d.Day < 1 || d.Day > 7 {
			return models.Invariant("day in [1,7]", "day=%d", d.Day)
		}
		if seen[d.Day] {
			return models.Invariant("one session per day", "day %d repeated", d.Day)
		}
		seen[d.Day] = true
		if len(d.Exercises) == 0 {
			return models.Missing(fmt.Sprintf("days[%d].exercises", d.Day))
		}
		for _, te := range d.Exercises {
			if _, ok := c.exercises[te.ExerciseID]; !ok {
				return models.NotFound("exercise", te.ExerciseID)
			}
			if te.Sets < 1 {
				return models.Invariant("sets >= 1", "exercise %d sets=%d", te.ExerciseID, te.Sets)
			}
			if _, _, ok := models.RepRange(te.TargetReps); !ok {
				return models.Invariant("rep target like 8-12", "exercise %d reps=%q", te.ExerciseID, te.TargetReps)
			}
		}
	}
	return nil
}

func (c *Catalog) Exercise(id int) (models.Exercise, bool) {
	ex, ok := c.exercises[id]
	return ex, ok
}

func (c *Catalog) MuscleGroup(id int) (models.MuscleGroup, bool) {
	mg, ok := c.muscles[id]
	return mg, ok
}

func (c *Catalog) Template(id int) (models.Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// MuscleGroups returns all muscle groups ordered by id.
func (c *Catalog) MuscleGroups() []models.MuscleGroup {
	out := make([]models.MuscleGroup, 0, len(c.muscles))
	for _, mg := range c.muscles {
		out = append(out, mg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Templates returns all templates ordered by id.
func (c *Catalog) Templates() []models.Template {
	out := make([]models.Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
