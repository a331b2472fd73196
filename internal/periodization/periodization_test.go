package periodization

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
)

// fakeCatalog is a minimal models.Catalog for engine tests.
type fakeCatalog map[int]models.Exercise

func (c fakeCatalog) Exercise(id int) (models.Exercise, bool) {
	ex, ok := c[id]
	return ex, ok
}

func (c fakeCatalog) MuscleGroup(int) (models.MuscleGroup, bool) { return models.MuscleGroup{}, false }

func (c fakeCatalog) Template(int) (models.Template, bool) { return models.Template{}, false }

const (
	chest   = 1
	triceps = 9
	biceps  = 8
)

func testCatalog() fakeCatalog {
	return fakeCatalog{
		1: {ID: 1, Name: "Bench", Muscles: []models.Contribution{
			{MuscleGroupID: chest, Role: models.RolePrimary, Percentage: 100},
			{MuscleGroupID: triceps, Role: models.RoleSecondary, Percentage: 50},
		}},
		13: {ID: 13, Name: "Curl", Muscles: []models.Contribution{
			{MuscleGroupID: biceps, Role: models.RolePrimary, Percentage: 100},
		}},
		14: {ID: 14, Name: "Pushdown", Muscles: []models.Contribution{
			{MuscleGroupID: triceps, Role: models.RolePrimary, Percentage: 100},
		}},
	}
}

func landmark(mev, mav, mrv int) models.Landmark {
	l, err := models.NewLandmark(1, chest, mev, mav, mrv, time.Time{})
	if err != nil {
		panic(err)
	}
	return l
}

func fb(pump, soreness, effort, energy, sleep int) models.Feedback {
	return models.Feedback{
		PumpQuality:     pump,
		MuscleSoreness:  soreness,
		PerceivedEffort: effort,
		EnergyLevel:     energy,
		SleepQuality:    sleep,
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int { return &v }
func sptr(v string) *string { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// TestAnalyzeFatigueNoSignal verifies an empty window recommends nothing.
func TestAnalyzeFatigueNoSignal(t *testing.T) {
	r := AnalyzeFatigue(nil, DefaultTuning().Fatigue)
	if r.ShouldDeload || r.FatigueScore != 0 || r.Reasons == nil || len(r.Reasons) != 0 {
		t.Errorf("empty window report = %+v", r)
	}
}

// TestAnalyzeFatigueScore verifies the weighted composite and that healthy feedback does not deload.
func TestAnalyzeFatigueScore(t *testing.T) {
	r := AnalyzeFatigue([]models.Feedback{fb(8, 3, 6, 7, 8)}, DefaultTuning().Fatigue)
	// 0.25*2 + 0.20*3 + 0.20*6 + 0.20*3 + 0.15*2
	if !approx(r.FatigueScore, 3.2) {
		t.Errorf("score = %v, want 3.2", r.FatigueScore)
	}
	if r.ShouldDeload {
		t.Errorf("unexpected deload: %v", r.Reasons)
	}
}

// TestAnalyzeFatigueThresholds verifies each single-indicator breach is reported.
func TestAnalyzeFatigueThresholds(t *testing.T) {
	tests := []struct {
		name string
		f    models.Feedback
	}{
		{"low pump", fb(5, 3, 6, 7, 8)},
		{"high soreness", fb(8, 8, 6, 7, 8)},
		{"high effort", fb(8, 3, 9, 7, 8)},
		{"low energy", fb(8, 3, 6, 4, 8)},
		{"poor sleep", fb(8, 3, 6, 7, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AnalyzeFatigue([]models.Feedback{tt.f}, DefaultTuning().Fatigue)
			if !r.ShouldDeload || len(r.Reasons) != 1 {
				t.Errorf("report = %+v, want one reason and deload", r)
			}
		})
	}
}

// TestAnalyzeFatigueDeterministic verifies identical windows give identical verdicts regardless of order.
func TestAnalyzeFatigueDeterministic(t *testing.T) {
	window := []models.Feedback{fb(5, 8, 9, 4, 4), fb(7, 6, 7, 6, 6), fb(9, 2, 5, 8, 9)}
	reversed := []models.Feedback{window[2], window[1], window[0]}
	a := AnalyzeFatigue(window, DefaultTuning().Fatigue)
	b := AnalyzeFatigue(reversed, DefaultTuning().Fatigue)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("reports differ:\n%+v\n%+v", a, b)
	}
}

// TestPlanTargetAccumulation verifies the linear ramp, including the 13-set week-3 example.
func TestPlanTargetAccumulation(t *testing.T) {
	tn := DefaultTuning().Planner
	tests := []struct {
		name                 string
		week                 int
		recovery, adaptation int
		want                 int
	}{
		{"week 1 starts at mev", 1, 5, 5, 8},
		{"week 3 no modifiers", 3, 5, 5, 13},
		{"week 3 pulled back", 3, 3, 5, 10},
		{"week 3 pushed forward", 3, 8, 7, 14},
		{"week 4 push capped by mav", 4, 8, 7, 17},
		{"pull back never below mev", 1, 2, 5, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := landmark(8, 18, 22)
			l.RecoveryLevel, l.AdaptationLevel = tt.recovery, tt.adaptation
			got, phase := PlanTarget(l, tt.week, 6, false, tn)
			if got != tt.want || phase != models.PhaseAccumulation {
				t.Errorf("PlanTarget = %d %s, want %d accumulation", got, phase, tt.want)
			}
		})
	}
}

// TestPlanTargetIntensificationAndDeload verifies the late-block branches.
func TestPlanTargetIntensificationAndDeload(t *testing.T) {
	tn := DefaultTuning().Planner
	l := landmark(8, 18, 22)

	l.RecoveryLevel = 6
	if got, phase := PlanTarget(l, 5, 6, false, tn); got != 18 || phase != models.PhaseIntensification {
		t.Errorf("intensification recovered = %d %s, want 18", got, phase)
	}
	l.RecoveryLevel = 5
	if got, _ := PlanTarget(l, 5, 6, false, tn); got != 16 {
		t.Errorf("intensification backoff = %d, want 16", got)
	}
	if got, phase := PlanTarget(l, 6, 6, false, tn); got != 6 || phase != models.PhaseDeload {
		t.Errorf("deload = %d %s, want round(0.7*8)=6", got, phase)
	}
	if got, phase := PlanTarget(l, 2, 6, true, tn); got != 6 || phase != models.PhaseDeload {
		t.Errorf("forced deload = %d %s, want 6", got, phase)
	}
}

// TestDeloadIsOnlyPhaseBelowMEV sweeps landmarks and weeks and checks the MEV floor.
func TestDeloadIsOnlyPhaseBelowMEV(t *testing.T) {
	tn := DefaultTuning().Planner
	for mev := 4; mev <= 12; mev++ {
		for _, lv := range []int{1, 3, 5, 7, 10} {
			l := landmark(mev, mev+8, mev+14)
			l.RecoveryLevel, l.AdaptationLevel = lv, lv
			for total := 2; total <= 8; total++ {
				for week := 1; week <= total; week++ {
					got, phase := PlanTarget(l, week, total, false, tn)
					if phase == models.PhaseDeload {
						if want := int(math.Round(0.7 * float64(mev))); got != want {
							t.Fatalf("deload target = %d, want %d", got, want)
						}
						continue
					}
					if got < l.MEV || got > l.MRV {
						t.Fatalf("mev=%d week=%d/%d lv=%d: target %d outside [%d,%d]", mev, week, total, lv, got, l.MEV, l.MRV)
					}
				}
			}
		}
	}
}

// TestPlanVolumeOrdersAndLabelsNextWeek verifies output targets the following week.
func TestPlanVolumeOrdersAndLabelsNextWeek(t *testing.T) {
	a := landmark(8, 18, 22)
	a.MuscleGroupID = 9
	b := landmark(6, 12, 18)
	b.MuscleGroupID = 2
	out := PlanVolume([]models.Landmark{a, b}, 3, 6, false, DefaultTuning().Planner)
	if len(out) != 2 || out[0].MuscleGroupID != 2 || out[1].MuscleGroupID != 9 {
		t.Fatalf("PlanVolume order = %+v", out)
	}
	if out[0].Week != 4 {
		t.Errorf("week = %d, want 4", out[0].Week)
	}
}

// TestAdvanceFullMesocycle walks a 6-week block to completion and checks the planner agrees on phases.
func TestAdvanceFullMesocycle(t *testing.T) {
	s := State{Week: 1, TotalWeeks: 6, Phase: models.PhaseAccumulation, Active: true}
	wantPhase := map[int]models.Phase{
		2: models.PhaseAccumulation,
		3: models.PhaseAccumulation,
		4: models.PhaseAccumulation,
		5: models.PhaseAccumulation,
		6: models.PhaseIntensification,
	}
	for s.Week < 6 {
		planned := ScheduledPhase(s.Week, s.TotalWeeks)
		step, err := Advance(s, false)
		if err != nil {
			t.Fatalf("advance from week %d: %v", s.Week, err)
		}
		if step.To.Phase != wantPhase[step.To.Week] {
			t.Errorf("week %d phase = %s, want %s", step.To.Week, step.To.Phase, wantPhase[step.To.Week])
		}
		if planned != step.To.Phase {
			t.Errorf("week %d: planner says %s, machine says %s", step.To.Week, planned, step.To.Phase)
		}
		s = step.To
	}

	step, err := Advance(s, false)
	if err != nil {
		t.Fatalf("completing: %v", err)
	}
	if !step.Completed() || step.To.Active || step.To.Phase != models.PhaseDeload || step.To.Week != 7 {
		t.Errorf("completion step = %+v", step)
	}

	if _, err := Advance(step.To, false); !errors.Is(err, models.ErrInvariantViolation) {
		t.Errorf("advance after completion err = %v, want invariant violation", err)
	}
}

// TestAdvanceFatigueDeloadIsAbsorbing verifies a forced deload sticks until completion.
func TestAdvanceFatigueDeloadIsAbsorbing(t *testing.T) {
	s := State{Week: 2, TotalWeeks: 6, Phase: models.PhaseAccumulation, Active: true}
	step, err := Advance(s, true)
	if err != nil {
		t.Fatal(err)
	}
	if step.To.Phase != models.PhaseDeload || step.Trigger != TriggerFatigue || !step.PhaseChanged() {
		t.Errorf("fatigue step = %+v", step)
	}
	step, err = Advance(step.To, false)
	if err != nil {
		t.Fatal(err)
	}
	if step.To.Phase != models.PhaseDeload || step.Trigger != TriggerNone {
		t.Errorf("step after deload = %+v, want deload without trigger", step)
	}
}

// TestAdvanceTwoWeekBlock verifies the shortest block goes straight to intensification.
func TestAdvanceTwoWeekBlock(t *testing.T) {
	step, err := Advance(State{Week: 1, TotalWeeks: 2, Phase: models.PhaseAccumulation, Active: true}, false)
	if err != nil {
		t.Fatal(err)
	}
	if step.To.Phase != models.PhaseIntensification || step.To.Week != 2 {
		t.Errorf("step = %+v", step)
	}
}

// TestApplyFeedbackGoodSession verifies scores, the +1 bucket, and the target hint.
func TestApplyFeedbackGoodSession(t *testing.T) {
	l := landmark(8, 18, 22)
	l.CurrentVolume = 10
	f := fb(8, 3, 4, 8, 8)
	v := MuscleVolume{MuscleGroupID: chest, PlannedSets: 4, CompletedSets: 4}

	got, adj := ApplyFeedback(l, f, v, l.MEV, time.Now())
	if !approx(adj.RecoveryScore, 7.1) {
		t.Errorf("recovery = %v, want 7.1", adj.RecoveryScore)
	}
	if !approx(adj.AdaptationScore, 9) {
		t.Errorf("adaptation = %v, want 9", adj.AdaptationScore)
	}
	if adj.Delta != 1 || got.CurrentVolume != 11 {
		t.Errorf("delta/current = %d/%d, want 1/11", adj.Delta, got.CurrentVolume)
	}
	if got.TargetVolume != 12 {
		t.Errorf("target hint = %d, want 12", got.TargetVolume)
	}
	if got.RecoveryLevel != 7 || got.AdaptationLevel != 9 {
		t.Errorf("levels = %d/%d, want 7/9", got.RecoveryLevel, got.AdaptationLevel)
	}
}

// TestApplyFeedbackPoorSessionRespectsMEV verifies the -1 near MEV and the MEV floor.
func TestApplyFeedbackPoorSessionRespectsMEV(t *testing.T) {
	l := landmark(8, 18, 22)
	l.CurrentVolume = 9
	got, adj := ApplyFeedback(l, fb(3, 9, 9, 2, 3), MuscleVolume{PlannedSets: 4, CompletedSets: 2}, l.MEV, time.Now())
	if adj.Delta != -1 || got.CurrentVolume != 8 {
		t.Errorf("delta/current = %d/%d, want -1/8", adj.Delta, got.CurrentVolume)
	}
	if got.TargetVolume != 8 {
		t.Errorf("target = %d, want clamped to mev 8", got.TargetVolume)
	}
	if got.RecoveryLevel != 2 {
		t.Errorf("recovery level = %d, want 2", got.RecoveryLevel)
	}
}

// TestVolumeDeltaBuckets covers every recovery/adaptation bucket and its MAV and MEV variants.
func TestVolumeDeltaBuckets(t *testing.T) {
	tests := []struct {
		name           string
		current        int
		recovery, adap float64
		want           int
	}{
		{"both >=8 below mav", 10, 8, 8, 2},
		{"both >=8 at mav", 16, 8, 9, 1},
		{"both >=8 above mav", 18, 9, 9, 1},
		{"one just under 8 drops a bucket", 10, 8, 7.9, 1},
		{"both >=6 below mav", 10, 6, 7, 1},
		{"both >=6 at mav", 16, 7, 6, 0},
		{"both >=4", 10, 5, 4, 0},
		{"both >=4 at mav", 16, 4, 4, 0},
		{"low near mev", 9, 3, 9, -1},
		{"low at mev+2", 10, 9, 3.9, -2},
		{"low well above mev", 14, 2, 2, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := landmark(8, 16, 22)
			l.CurrentVolume = tt.current
			if got := VolumeDelta(l, tt.recovery, tt.adap); got != tt.want {
				t.Errorf("VolumeDelta(current=%d, %v, %v) = %d, want %d", tt.current, tt.recovery, tt.adap, got, tt.want)
			}
		})
	}
}

// TestTargetHint covers the speculative target rules, the MAV cap and the floor clamp.
func TestTargetHint(t *testing.T) {
	tests := []struct {
		name           string
		current, floor int
		recovery, adap float64
		want           int
	}{
		{"both >=7 adds a set", 10, 8, 7, 7, 11},
		{"both >=7 stops at mav", 16, 8, 9, 9, 16},
		{"both >=7 above mav pulls back to mav", 20, 8, 9, 9, 16},
		{"both >=5 unchanged", 10, 8, 6, 5, 10},
		{"both >=5 above mav unchanged", 20, 8, 5, 5, 20},
		{"low takes the smaller cut", 10, 8, 3, 9, 9},
		{"low above mav", 20, 8, 3, 3, 19},
		{"low clamped to mev", 8, 8, 2, 2, 8},
		{"low clamped to deload floor", 5, 5, 2, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := landmark(8, 16, 22)
			l.CurrentVolume = tt.current
			if got := TargetHint(l, tt.recovery, tt.adap, tt.floor); got != tt.want {
				t.Errorf("TargetHint(current=%d, %v, %v) = %d, want %d", tt.current, tt.recovery, tt.adap, got, tt.want)
			}
		})
	}
}

// TestAdaptationScoreBonus verifies the completion bonus curve.
func TestAdaptationScoreBonus(t *testing.T) {
	if got := AdaptationScore(7, 0.5); !approx(got, 7.25) {
		t.Errorf("half completion = %v, want 7.25", got)
	}
	if got := AdaptationScore(7, 1.4); !approx(got, 8) {
		t.Errorf("over completion = %v, want 8", got)
	}
	if got := AdaptationScore(10, 1); got != 10 {
		t.Errorf("cap = %v, want 10", got)
	}
}

// TestApplyFeedbackKeepsLandmarkValid sweeps ratings and volumes and checks every update stays in bounds.
func TestApplyFeedbackKeepsLandmarkValid(t *testing.T) {
	ratings := []int{1, 5, 10}
	for cur := 8; cur <= 22; cur++ {
		for _, p := range ratings {
			for _, s := range ratings {
				for _, e := range ratings {
					for _, en := range ratings {
						for _, sl := range ratings {
							l := landmark(8, 18, 22)
							l.CurrentVolume = cur
							got, _ := ApplyFeedback(l, fb(p, s, e, en, sl), MuscleVolume{PlannedSets: 3, CompletedSets: 3}, l.MEV, time.Now())
							if err := got.Validate(got.MEV); err != nil {
								t.Fatalf("cur=%d ratings=%d,%d,%d,%d,%d: %v", cur, p, s, e, en, sl, err)
							}
						}
					}
				}
			}
		}
	}
}

// TestSessionMuscleVolumes verifies contribution-weighted planned and completed sets.
func TestSessionMuscleVolumes(t *testing.T) {
	s := models.Session{Exercises: []models.SessionExercise{
		{ExerciseID: 1, Sets: 4, ActualReps: sptr("10,10,9")},
		{ExerciseID: 999, Sets: 3},
	}}
	got := SessionMuscleVolumes(s, testCatalog())
	if len(got) != 2 {
		t.Fatalf("volumes = %+v, want chest and triceps", got)
	}
	if got[0].MuscleGroupID != chest || got[0].PlannedSets != 4 || got[0].CompletedSets != 3 {
		t.Errorf("chest = %+v", got[0])
	}
	if got[1].MuscleGroupID != triceps || got[1].PlannedSets != 2 || got[1].CompletedSets != 1.5 {
		t.Errorf("triceps = %+v", got[1])
	}
}

// TestProgressLoadRules verifies each rule's load, RPE, and RIR output.
func TestProgressLoadRules(t *testing.T) {
	tests := []struct {
		name       string
		weight     *float64
		rpe        *float64
		rir        *int
		wantWeight *float64
		wantRPE    *float64
		wantRIR    int
		wantRule   LoadRule
	}{
		{"rule 1 hard set", fptr(100), fptr(9), iptr(0), fptr(102.5), fptr(8), 1, RuleHardSet},
		{"rule 1 without rir", fptr(100), fptr(8.5), nil, fptr(102.5), fptr(8), 1, RuleHardSet},
		{"rule 2 moderate set", fptr(100), fptr(7), iptr(2), fptr(105), fptr(7), 2, RuleModerateSet},
		{"rule 2 rounds to step", fptr(62.5), fptr(6), iptr(3), fptr(65.75), fptr(7), 2, RuleModerateSet},
		{"rule 3 easy set", fptr(100), fptr(5), iptr(5), fptr(107.5), fptr(7), 4, RuleEasySet},
		{"rule 4 grinder", fptr(100), fptr(9.5), iptr(2), fptr(97.5), fptr(8), 2, RuleGrinder},
		{"rule 5 rir missing", fptr(80), fptr(7), nil, fptr(82), fptr(7), 2, RuleNoRIR},
		{"rule 6 carry forward", fptr(100), fptr(7), iptr(1), fptr(100), fptr(7), 1, RuleCarryForward},
		{"missing rpe carries forward", fptr(100), nil, nil, fptr(100), nil, 2, RuleCarryForward},
		{"missing weight stays missing", nil, fptr(9), iptr(0), nil, fptr(8), 1, RuleHardSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := models.SessionExercise{Weight: tt.weight, RPE: tt.rpe, RIR: tt.rir, Sets: 3}
			p := ProgressLoad(last, DefaultTuning().Load)
			if p.Rule != tt.wantRule {
				t.Errorf("rule = %s, want %s", p.Rule, tt.wantRule)
			}
			if !equalFloatPtr(p.Weight, tt.wantWeight) {
				t.Errorf("weight = %v, want %v", deref(p.Weight), deref(tt.wantWeight))
			}
			if !equalFloatPtr(p.RPE, tt.wantRPE) {
				t.Errorf("rpe = %v, want %v", deref(p.RPE), deref(tt.wantRPE))
			}
			if p.RIR == nil || *p.RIR != tt.wantRIR {
				t.Errorf("rir = %v, want %d", p.RIR, tt.wantRIR)
			}
		})
	}
}

// TestSuggestedReps verifies the first-set rep adjustment follows the load change.
func TestSuggestedReps(t *testing.T) {
	tests := []struct {
		name string
		rpe  float64
		rir  int
		want int
	}{
		{"load up", 9, 0, 9},
		{"load down", 9.5, 2, 11},
		{"load equal", 7, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := models.SessionExercise{Weight: fptr(100), RPE: fptr(tt.rpe), RIR: iptr(tt.rir), ActualReps: sptr("10,9,8"), Sets: 3}
			p := ProgressLoad(last, DefaultTuning().Load)
			if p.SuggestedReps == nil || *p.SuggestedReps != tt.want {
				t.Errorf("suggested reps = %v, want %d", p.SuggestedReps, tt.want)
			}
		})
	}
}

// TestProgressSets verifies the flat +10% per week factor.
func TestProgressSets(t *testing.T) {
	tn := DefaultTuning().Planner
	for _, tt := range []struct{ base, week, want int }{{3, 1, 3}, {3, 3, 4}, {2, 2, 2}, {4, 6, 6}} {
		if got := ProgressSets(tt.base, tt.week, tn); got != tt.want {
			t.Errorf("ProgressSets(%d, %d) = %d, want %d", tt.base, tt.week, got, tt.want)
		}
	}
}

func seedMesocycle() (models.Mesocycle, []models.Session) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	m, _ := models.NewMesocycle(1, "test", 6, start, start)
	s := models.Session{
		ID: uuid.New(), MesocycleID: m.ID, UserID: 1, Week: 1, Day: 1, Name: "Push", Date: start,
		Exercises: []models.SessionExercise{
			{ID: uuid.New(), Position: 0, ExerciseID: 1, Sets: 3, TargetReps: "6-10", RestPeriod: 180,
				Weight: fptr(100), RPE: fptr(9), RIR: iptr(0), ActualReps: sptr("8,8,7"), IsCompleted: true},
			{ID: uuid.New(), Position: 1, ExerciseID: 13, Sets: 2, TargetReps: "10-15", RestPeriod: 90,
				Weight: fptr(20), SpecialMethod: models.MethodDropSet},
		},
	}
	s.Exercises[0].SessionID, s.Exercises[1].SessionID = s.ID, s.ID
	return m, []models.Session{s}
}

// TestGenerateWeekProgressesFromHistory verifies load progression from the last completed occurrence and seed fallbacks.
func TestGenerateWeekProgressesFromHistory(t *testing.T) {
	m, sessions := seedMesocycle()
	m.CurrentWeek = 2
	out, err := GenerateWeek(WeekInput{Mesocycle: m, Sessions: sessions, Catalog: testCatalog(), Tuning: DefaultTuning()})
	if err != nil {
		t.Fatalf("GenerateWeek: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("sessions = %d, want 1", len(out))
	}
	s := out[0]
	if s.Week != 2 || !s.Date.Equal(sessions[0].Date.AddDate(0, 0, 7)) || s.IsCompleted {
		t.Errorf("session = week %d date %v completed %v", s.Week, s.Date, s.IsCompleted)
	}
	bench, curl := s.Exercises[0], s.Exercises[1]
	if bench.Sets != 3 || *bench.Weight != 102.5 || *bench.RIR != 1 || *bench.SuggestedReps != 7 {
		t.Errorf("bench = sets %d weight %v rir %v reps %v", bench.Sets, *bench.Weight, *bench.RIR, *bench.SuggestedReps)
	}
	if bench.ActualReps != nil || bench.IsCompleted || bench.ID == sessions[0].Exercises[0].ID {
		t.Errorf("bench should be a fresh unstarted row: %+v", bench)
	}
	if *curl.Weight != 20 || curl.SuggestedReps != nil || curl.SpecialMethod != models.MethodDropSet {
		t.Errorf("curl should fall back to seed defaults: %+v", curl)
	}
}

// TestGenerateWeekFitsTargets verifies set counts are rescaled to the planned muscle volume.
func TestGenerateWeekFitsTargets(t *testing.T) {
	m, sessions := seedMesocycle()
	m.CurrentWeek = 3
	targets := []VolumeTarget{{MuscleGroupID: chest, Week: 3, TargetSets: 6}, {MuscleGroupID: biceps, Week: 3, TargetSets: 1}}
	out, err := GenerateWeek(WeekInput{Mesocycle: m, Sessions: sessions, Targets: targets, Catalog: testCatalog(), Tuning: DefaultTuning()})
	if err != nil {
		t.Fatal(err)
	}
	vol := WeeklyMuscleVolume(out, testCatalog())
	if vol[chest] != 6 {
		t.Errorf("chest volume = %v, want 6", vol[chest])
	}
	if out[0].Exercises[1].Sets != 1 {
		t.Errorf("curl sets = %d, want 1", out[0].Exercises[1].Sets)
	}
}

// TestGenerateWeekTargetReplacesFactor verifies the weekly factor only sizes muscles the planner left untargeted.
func TestGenerateWeekTargetReplacesFactor(t *testing.T) {
	m, _ := seedMesocycle()
	m.CurrentWeek = 4
	s := models.Session{ID: uuid.New(), MesocycleID: m.ID, UserID: 1, Week: 1, Day: 1, Name: "Push", Date: m.StartDate,
		Exercises: []models.SessionExercise{
			{ID: uuid.New(), Position: 0, ExerciseID: 1, Sets: 4, TargetReps: "6-10"},
			{ID: uuid.New(), Position: 1, ExerciseID: 1, Sets: 4, TargetReps: "8-12"},
			{ID: uuid.New(), Position: 2, ExerciseID: 13, Sets: 4, TargetReps: "10-15"},
		}}
	in := WeekInput{Mesocycle: m, Sessions: []models.Session{s}, Catalog: testCatalog(), Tuning: DefaultTuning()}

	out, err := GenerateWeek(in)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range out[0].Exercises {
		if e.Sets != 5 {
			t.Errorf("untargeted exercise %d sets = %d, want 5 from the week-4 factor", i, e.Sets)
		}
	}

	in.Targets = []VolumeTarget{{MuscleGroupID: chest, Week: 4, TargetSets: 8}}
	out, err = GenerateWeek(in)
	if err != nil {
		t.Fatal(err)
	}
	got := []int{out[0].Exercises[0].Sets, out[0].Exercises[1].Sets, out[0].Exercises[2].Sets}
	if !reflect.DeepEqual(got, []int{4, 4, 5}) {
		t.Errorf("sets = %v, want [4 4 5]: chest on its target, curl on the factor", got)
	}
}

// TestFitVolumeCountsSecondaryWork verifies secondary contributions count toward the target.
func TestFitVolumeCountsSecondaryWork(t *testing.T) {
	sessions := []models.Session{{Exercises: []models.SessionExercise{
		{ExerciseID: 1, Sets: 4},
		{ExerciseID: 14, Sets: 3},
	}}}
	FitVolume(sessions, []VolumeTarget{{MuscleGroupID: triceps, TargetSets: 8}}, testCatalog())
	if got := sessions[0].Exercises[1].Sets; got != 6 {
		t.Errorf("pushdown sets = %d, want 6 (8 minus 2 from bench)", got)
	}
	if got := sessions[0].Exercises[0].Sets; got != 4 {
		t.Errorf("bench sets = %d, want untouched 4", got)
	}
}

// TestGenerateWeekRequiresSeed verifies generation fails without week-1 sessions.
func TestGenerateWeekRequiresSeed(t *testing.T) {
	m, _ := seedMesocycle()
	m.CurrentWeek = 2
	if _, err := GenerateWeek(WeekInput{Mesocycle: m, Catalog: testCatalog(), Tuning: DefaultTuning()}); !errors.Is(err, models.ErrInvariantViolation) {
		t.Errorf("err = %v, want invariant violation", err)
	}
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return approx(*a, *b)
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
