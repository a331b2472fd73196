package periodization

import (
	"sort"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
)

// WeekInput is everything GenerateWeek needs to materialize one week.
type WeekInput struct {
	// Mesocycle is already advanced: CurrentWeek is the week to generate.
	Mesocycle models.Mesocycle
	// Sessions holds every existing session of the mesocycle. Week 1 is the
	// seed; earlier weeks supply performance history.
	Sessions []models.Session
	Targets  []VolumeTarget
	Catalog  models.Catalog
	Tuning   Tuning
}

// GenerateWeek builds the sessions of in.Mesocycle.CurrentWeek from the week-1
// seed. Each exercise keeps its seed position and rep target. Sets follow the
// weekly progression factor and are then fitted to the planned muscle targets.
// Load comes from the most recent completed occurrence of the same exercise,
// or the seed's static prescription when there is none.
func GenerateWeek(in WeekInput) ([]models.Session, error) {
	week := in.Mesocycle.CurrentWeek
	if week < 2 {
		return nil, models.Invariant("generated week > 1", "week=%d", week)
	}

	seed := sessionsOfWeek(in.Sessions, 1)
	if len(seed) == 0 {
		return nil, models.Invariant("week 1 sessions exist", "mesocycle %s has none", in.Mesocycle.ID)
	}
	history := lastCompleted(in.Sessions, week)

	out := make([]models.Session, 0, len(seed))
	for _, s := range seed {
		next := models.Session{
			ID:          uuid.New(),
			MesocycleID: in.Mesocycle.ID,
			UserID:      in.Mesocycle.UserID,
			Week:        week,
			Day:         s.Day,
			Name:        s.Name,
			Date:        s.Date.AddDate(0, 0, 7*(week-1)),
			Exercises:   make([]models.SessionExercise, 0, len(s.Exercises)),
		}
		for _, e := range s.Exercises {
			ne := models.SessionExercise{
				ID:            uuid.New(),
				SessionID:     next.ID,
				Position:      e.Position,
				ExerciseID:    e.ExerciseID,
				Sets:          ProgressSets(e.Sets, week, in.Tuning.Planner),
				TargetReps:    e.TargetReps,
				RestPeriod:    e.RestPeriod,
				SpecialMethod: e.SpecialMethod,
				MethodConfig:  e.MethodConfig,
			}
			if last, ok := history[e.ExerciseID]; ok {
				p := ProgressLoad(last, in.Tuning.Load)
				ne.Weight, ne.RPE, ne.RIR, ne.SuggestedReps = p.Weight, p.RPE, p.RIR, p.SuggestedReps
			} else {
				ne.Weight, ne.RPE, ne.RIR = copyFloat(e.Weight), copyFloat(e.RPE), copyInt(e.RIR)
			}
			next.Exercises = append(next.Exercises, ne)
		}
		out = append(out, next)
	}

	FitVolume(out, in.Targets, in.Catalog)
	return out, nil
}

// FitVolume rescales set counts so that, for every muscle group with a target,
// the week's contribution-weighted volume lands on it. The target already
// carries the week's progression, so it replaces the flat factor rather than
// stacking on it. Only exercises whose
// primary muscle is the targeted group are scaled; volume the group picks up
// as a secondary mover counts toward the target as-is. Every exercise keeps at
// least one set.
func FitVolume(sessions []models.Session, targets []VolumeTarget, cat models.Catalog) {
	if len(targets) == 0 {
		return
	}
	want := make(map[int]int, len(targets))
	for _, t := range targets {
		want[t.MuscleGroupID] = t.TargetSets
	}

	primaryOf := func(id int) (models.Exercise, int, bool) {
		ex, ok := cat.Exercise(id)
		if !ok {
			return ex, 0, false
		}
		p, ok := ex.PrimaryMuscle()
		return ex, p.MuscleGroupID, ok
	}

	primary := make(map[int]float64)
	secondary := make(map[int]float64)
	for _, s := range sessions {
		for _, e := range s.Exercises {
			ex, pm, ok := primaryOf(e.ExerciseID)
			if !ok {
				continue
			}
			for _, c := range ex.Muscles {
				v := float64(e.Sets) * c.Percentage / 100
				if c.MuscleGroupID == pm {
					primary[pm] += v
				} else {
					secondary[c.MuscleGroupID] += v
				}
			}
		}
	}

	for si := range sessions {
		for ei := range sessions[si].Exercises {
			e := &sessions[si].Exercises[ei]
			_, pm, ok := primaryOf(e.ExerciseID)
			if !ok {
				continue
			}
			target, planned := want[pm]
			if !planned || primary[pm] <= 0 {
				continue
			}
			k := (float64(target) - secondary[pm]) / primary[pm]
			e.Sets = max(1, roundSets(float64(e.Sets)*k))
		}
	}
}

// WeeklyMuscleVolume sums the planned contribution-weighted sets per muscle
// group across sessions.
func WeeklyMuscleVolume(sessions []models.Session, cat models.Catalog) map[int]float64 {
	out := make(map[int]float64)
	for _, s := range sessions {
		for _, v := range SessionMuscleVolumes(s, cat) {
			out[v.MuscleGroupID] += v.PlannedSets
		}
	}
	return out
}

func sessionsOfWeek(sessions []models.Session, week int) []models.Session {
	var out []models.Session
	for _, s := range sessions {
		if s.Week == week {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	for i := range out {
		ex := append([]models.SessionExercise(nil), out[i].Exercises...)
		sort.Slice(ex, func(a, b int) bool { return ex[a].Position < ex[b].Position })
		out[i].Exercises = ex
	}
	return out
}

// lastCompleted returns, per catalog exercise, its most recent completed
// occurrence before week.
func lastCompleted(sessions []models.Session, before int) map[int]models.SessionExercise {
	ordered := append([]models.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Week != ordered[j].Week {
			return ordered[i].Week < ordered[j].Week
		}
		return ordered[i].Day < ordered[j].Day
	})
	out := make(map[int]models.SessionExercise)
	for _, s := range ordered {
		if s.Week >= before {
			continue
		}
		for _, e := range s.Exercises {
			if e.IsCompleted {
				out[e.ExerciseID] = e
			}
		}
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
