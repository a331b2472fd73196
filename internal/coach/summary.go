package coach

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// RIRBand holds the count and percentage of completed sets in one RIR range.
type RIRBand struct {
	Band     string  `json:"band"`
	RIRRange string  `json:"rir_range"`
	Sets     int     `json:"sets"`
	Pct      float64 `json:"pct"`
}

// MuscleWeekVolume is the contribution-weighted volume one muscle group got in a week.
type MuscleWeekVolume struct {
	MuscleGroupID int     `json:"muscle_group_id"`
	Name          string  `json:"name"`
	PlannedSets   float64 `json:"planned_sets"`
	CompletedSets float64 `json:"completed_sets"`
}

// WeekSummary aggregates one week of a mesocycle.
type WeekSummary struct {
	Week              int                `json:"week"`
	Sessions          int                `json:"sessions"`
	CompletedSessions int                `json:"completed_sessions"`
	TonnageKg         float64            `json:"tonnage_kg"`
	Muscles           []MuscleWeekVolume `json:"muscles"`
}

// MesocycleSummary is the training analysis of a whole mesocycle.
type MesocycleSummary struct {
	Mesocycle       models.Mesocycle `json:"mesocycle"`
	Weeks           []WeekSummary    `json:"weeks"`
	RIRDistribution []RIRBand        `json:"rir_distribution"`
	FailureRatePct  float64          `json:"failure_rate_pct"`
	TotalSets       int              `json:"total_sets"`
	TrackedSets     int              `json:"tracked_sets"`
	FeedbackCount   int              `json:"feedback_count"`
}

var rirBands = []struct {
	band, rirRange string
}{
	{"failure", "0"},
	{"near_failure", "1"},
	{"moderate", "2"},
	{"easy", "3"},
	{"very_easy", ">3"},
	{"untracked", "untracked"},
}

func rirBandIndex(rir *int) int {
	switch {
	case rir == nil:
		return 5
	case *rir <= 0:
		return 0
	case *rir <= 4:
		return *rir
	}
	return 4
}

// MesocycleSummary returns per-week volume and tonnage plus the RIR
// distribution of every completed set in the mesocycle.
func (s *Service) MesocycleSummary(ctx context.Context, userID int, id uuid.UUID) (MesocycleSummary, error) {
	var out MesocycleSummary
	err := s.store.View(ctx, func(r models.Reader) error {
		m, err := ownedMesocycle(ctx, r, userID, id)
		if err != nil {
			return err
		}
		sessions, err := r.ListSessions(ctx, id)
		if err != nil {
			return err
		}
		out = summarize(m, sessions, s.catalog)
		for _, sess := range sessions {
			if _, err := r.FeedbackForSession(ctx, sess.ID); err == nil {
				out.FeedbackCount++
			} else if !isNotFound(err) {
				return err
			}
		}
		return nil
	})
	return out, err
}

func summarize(m models.Mesocycle, sessions []models.Session, cat models.Catalog) MesocycleSummary {
	out := MesocycleSummary{Mesocycle: m, Weeks: []WeekSummary{}}
	counts := make([]int, len(rirBands))

	byWeek := make(map[int]*WeekSummary)
	muscles := make(map[int]map[int]*MuscleWeekVolume)
	for _, sess := range sessions {
		w, ok := byWeek[sess.Week]
		if !ok {
			w = &WeekSummary{Week: sess.Week}
			byWeek[sess.Week] = w
			muscles[sess.Week] = make(map[int]*MuscleWeekVolume)
		}
		w.Sessions++
		if sess.IsCompleted {
			w.CompletedSessions++
		}
		for _, e := range sess.Exercises {
			w.TonnageKg += e.Tonnage()
			if n := e.CompletedSets(); n > 0 {
				counts[rirBandIndex(e.RIR)] += n
			}
		}
		for _, v := range periodization.SessionMuscleVolumes(sess, cat) {
			mv, ok := muscles[sess.Week][v.MuscleGroupID]
			if !ok {
				mv = &MuscleWeekVolume{MuscleGroupID: v.MuscleGroupID}
				if mg, ok := cat.MuscleGroup(v.MuscleGroupID); ok {
					mv.Name = mg.Name
				}
				muscles[sess.Week][v.MuscleGroupID] = mv
			}
			mv.PlannedSets += v.PlannedSets
			mv.CompletedSets += v.CompletedSets
		}
	}

	for week, w := range byWeek {
		w.Muscles = make([]MuscleWeekVolume, 0, len(muscles[week]))
		for _, mv := range muscles[week] {
			w.Muscles = append(w.Muscles, *mv)
		}
		sort.Slice(w.Muscles, func(i, j int) bool { return w.Muscles[i].MuscleGroupID < w.Muscles[j].MuscleGroupID })
		out.Weeks = append(out.Weeks, *w)
	}
	sort.Slice(out.Weeks, func(i, j int) bool { return out.Weeks[i].Week < out.Weeks[j].Week })

	var failureSets int
	for i, b := range rirBands {
		n := counts[i]
		out.TotalSets += n
		if b.band != "untracked" {
			out.TrackedSets += n
		}
		if b.band == "failure" || b.band == "near_failure" {
			failureSets += n
		}
	}
	out.RIRDistribution = make([]RIRBand, 0, len(rirBands))
	for i, b := range rirBands {
		if counts[i] == 0 {
			continue
		}
		band := RIRBand{Band: b.band, RIRRange: b.rirRange, Sets: counts[i]}
		if out.TotalSets > 0 {
			band.Pct = float64(counts[i]) / float64(out.TotalSets) * 100
		}
		out.RIRDistribution = append(out.RIRDistribution, band)
	}
	if out.TrackedSets > 0 {
		out.FailureRatePct = float64(failureSets) / float64(out.TrackedSets) * 100
	}
	return out
}
