// Package memstore is an in-memory models.Store. Transactions run against a
// private clone of the state that replaces the live state only when the
// transaction function returns nil, so a failed operation leaves no trace.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/models"
)

type landmarkKey struct {
	userID        int
	muscleGroupID int
}

type state struct {
	users      map[int]models.User
	logins     map[string]int
	mesocycles map[uuid.UUID]models.Mesocycle
	sessions   map[uuid.UUID]models.Session
	exercises  map[uuid.UUID]uuid.UUID       // exercise row id -> session id
	feedback   map[uuid.UUID]models.Feedback // keyed by session id
	landmarks  map[landmarkKey]models.Landmark
}

func newState() state {
	return state{
		users:      make(map[int]models.User),
		logins:     make(map[string]int),
		mesocycles: make(map[uuid.UUID]models.Mesocycle),
		sessions:   make(map[uuid.UUID]models.Session),
		exercises:  make(map[uuid.UUID]uuid.UUID),
		feedback:   make(map[uuid.UUID]models.Feedback),
		landmarks:  make(map[landmarkKey]models.Landmark),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.logins {
		c.logins[k] = v
	}
	for k, v := range s.mesocycles {
		c.mesocycles[k] = cloneMesocycle(v)
	}
	for k, v := range s.sessions {
		c.sessions[k] = cloneSession(v)
	}
	for k, v := range s.exercises {
		c.exercises[k] = v
	}
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	for k, v := range s.landmarks {
		c.landmarks[k] = v
	}
	return c
}

// Store is a concurrency-safe in-memory store. Writers are serialized; readers
// see the last committed state without waiting for writers.
type Store struct {
	mu       sync.RWMutex
	state    state
	onCommit func(Snapshot) error
}

var _ models.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// OnCommit registers fn to run with the new state before every commit is
// published. An error from fn aborts the commit.
func (s *Store) OnCommit(fn func(Snapshot) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = fn
}

func (s *Store) Update(ctx context.Context, fn func(models.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{view: view{st: s.state.clone()}}
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t.st)
}

// commit publishes next. Callers hold s.mu.
func (s *Store) commit(next state) error {
	if s.onCommit != nil {
		if err := s.onCommit(snapshotOf(next)); err != nil {
			return fmt.Errorf("persisting commit: %w", err)
		}
	}
	s.state = next
	return nil
}

// View runs fn against the last committed state. Committed state is never
// mutated in place, so no clone is needed.
func (s *Store) View(ctx context.Context, fn func(models.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	return fn(&view{st: st})
}

func (s *Store) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.state.logins[login]; ok {
		return id, nil
	}
	next := s.state.clone()
	id := 1
	for uid := range next.users {
		if uid >= id {
			id = uid + 1
		}
	}
	next.users[id] = models.User{ID: id, Login: login, DisplayName: displayName}
	next.logins[login] = id
	if err := s.commit(next); err != nil {
		return 0, err
	}
	return id, nil
}

type view struct {
	st state
}

func (v *view) GetMesocycle(_ context.Context, id uuid.UUID) (models.Mesocycle, error) {
	m, ok := v.st.mesocycles[id]
	if !ok {
		return models.Mesocycle{}, models.NotFound("mesocycle", id)
	}
	return cloneMesocycle(m), nil
}

func (v *view) ActiveMesocycle(_ context.Context, userID int) (models.Mesocycle, error) {
	var (
		found models.Mesocycle
		ok    bool
	)
	for _, m := range v.st.mesocycles {
		if m.UserID != userID || !m.IsActive {
			continue
		}
		if !ok || m.CreatedAt.After(found.CreatedAt) {
			found, ok = m, true
		}
	}
	if !ok {
		return models.Mesocycle{}, models.NotFound("active mesocycle for user", userID)
	}
	return cloneMesocycle(found), nil
}

func (v *view) ListSessions(_ context.Context, mesocycleID uuid.UUID) ([]models.Session, error) {
	if _, ok := v.st.mesocycles[mesocycleID]; !ok {
		return nil, models.NotFound("mesocycle", mesocycleID)
	}
	var out []models.Session
	for _, s := range v.st.sessions {
		if s.MesocycleID == mesocycleID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Day < out[j].Day
	})
	return out, nil
}

func (v *view) GetSession(_ context.Context, id uuid.UUID) (models.Session, error) {
	s, ok := v.st.sessions[id]
	if !ok {
		return models.Session{}, models.NotFound("session", id)
	}
	return cloneSession(s), nil
}

func (v *view) SessionForExercise(ctx context.Context, exerciseRowID uuid.UUID) (models.Session, error) {
	sid, ok := v.st.exercises[exerciseRowID]
	if !ok {
		return models.Session{}, models.NotFound("session exercise", exerciseRowID)
	}
	return v.GetSession(ctx, sid)
}

func (v *view) ListLandmarks(_ context.Context, userID int) ([]models.Landmark, error) {
	var out []models.Landmark
	for k, l := range v.st.landmarks {
		if k.userID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MuscleGroupID < out[j].MuscleGroupID })
	return out, nil
}

func (v *view) FeedbackSince(_ context.Context, userID int, since time.Time) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, f := range v.st.feedback {
		if f.UserID == userID && !f.CreatedAt.Before(since) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) FeedbackForSession(_ context.Context, sessionID uuid.UUID) (models.Feedback, error) {
	f, ok := v.st.feedback[sessionID]
	if !ok {
		return models.Feedback{}, models.NotFound("feedback for session", sessionID)
	}
	return f, nil
}

type tx struct {
	view
}

func (t *tx) LockMesocycle(ctx context.Context, id uuid.UUID) (models.Mesocycle, error) {
	return t.GetMesocycle(ctx, id)
}

func (t *tx) LockLandmarks(_ context.Context, userID int, muscleGroupIDs []int) (map[int]models.Landmark, error) {
	out := make(map[int]models.Landmark, len(muscleGroupIDs))
	for _, id := range muscleGroupIDs {
		if l, ok := t.st.landmarks[landmarkKey{userID, id}]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func (t *tx) InsertMesocycle(_ context.Context, m models.Mesocycle) error {
	if _, exists := t.st.mesocycles[m.ID]; exists {
		return models.Invariant("unique mesocycle id", "%s", m.ID)
	}
	t.st.mesocycles[m.ID] = cloneMesocycle(m)
	return nil
}

func (t *tx) UpdateMesocycle(_ context.Context, m models.Mesocycle) error {
	if _, ok := t.st.mesocycles[m.ID]; !ok {
		return models.NotFound("mesocycle", m.ID)
	}
	t.st.mesocycles[m.ID] = cloneMesocycle(m)
	return nil
}

func (t *tx) DeactivateMesocycles(_ context.Context, userID int) (int64, error) {
	var n int64
	for id, m := range t.st.mesocycles {
		if m.UserID == userID && m.IsActive {
			m.IsActive = false
			t.st.mesocycles[id] = m
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteMesocycle(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.mesocycles[id]; !ok {
		return models.NotFound("mesocycle", id)
	}
	for sid, s := range t.st.sessions {
		if s.MesocycleID != id {
			continue
		}
		for _, e := range s.Exercises {
			delete(t.st.exercises, e.ID)
		}
		delete(t.st.feedback, sid)
		delete(t.st.sessions, sid)
	}
	delete(t.st.mesocycles, id)
	return nil
}

func (t *tx) InsertSession(_ context.Context, s models.Session) error {
	if _, ok := t.st.mesocycles[s.MesocycleID]; !ok {
		return models.NotFound("mesocycle", s.MesocycleID)
	}
	if _, exists := t.st.sessions[s.ID]; exists {
		return models.Invariant("unique session id", "%s", s.ID)
	}
	for _, e := range s.Exercises {
		if _, exists := t.st.exercises[e.ID]; exists {
			return models.Invariant("unique session exercise id", "%s", e.ID)
		}
	}
	for _, e := range s.Exercises {
		t.st.exercises[e.ID] = s.ID
	}
	t.st.sessions[s.ID] = cloneSession(s)
	return nil
}

// UpdateSession writes the session's own fields. Exercises are written
// through UpdateExercise.
func (t *tx) UpdateSession(_ context.Context, s models.Session) error {
	cur, ok := t.st.sessions[s.ID]
	if !ok {
		return models.NotFound("session", s.ID)
	}
	cur.Name = s.Name
	cur.Date = s.Date
	cur.IsCompleted = s.IsCompleted
	cur.TotalVolume = s.TotalVolume
	cur.DurationSec = s.DurationSec
	t.st.sessions[s.ID] = cur
	return nil
}

func (t *tx) UpdateExercise(_ context.Context, e models.SessionExercise) error {
	sid, ok := t.st.exercises[e.ID]
	if !ok {
		return models.NotFound("session exercise", e.ID)
	}
	s := t.st.sessions[sid]
	for i := range s.Exercises {
		if s.Exercises[i].ID == e.ID {
			e.SessionID = sid
			s.Exercises[i] = cloneExercise(e)
		}
	}
	t.st.sessions[sid] = s
	return nil
}

func (t *tx) InsertFeedback(_ context.Context, f models.Feedback) error {
	if _, ok := t.st.sessions[f.SessionID]; !ok {
		return models.NotFound("session", f.SessionID)
	}
	if _, exists := t.st.feedback[f.SessionID]; exists {
		return models.Invariant("one feedback per session", "session %s", f.SessionID)
	}
	t.st.feedback[f.SessionID] = f
	return nil
}

func (t *tx) UpsertLandmark(_ context.Context, l models.Landmark) error {
	t.st.landmarks[landmarkKey{l.UserID, l.MuscleGroupID}] = l
	return nil
}

func cloneMesocycle(m models.Mesocycle) models.Mesocycle {
	if m.TemplateID != nil {
		id := *m.TemplateID
		m.TemplateID = &id
	}
	return m
}

func cloneSession(s models.Session) models.Session {
	if s.Exercises != nil {
		ex := make([]models.SessionExercise, len(s.Exercises))
		for i, e := range s.Exercises {
			ex[i] = cloneExercise(e)
		}
		sort.Slice(ex, func(i, j int) bool { return ex[i].Position < ex[j].Position })
		s.Exercises = ex
	}
	return s
}

func cloneExercise(e models.SessionExercise) models.SessionExercise {
	if e.ActualReps != nil {
		v := *e.ActualReps
		e.ActualReps = &v
	}
	if e.Weight != nil {
		v := *e.Weight
		e.Weight = &v
	}
	if e.RPE != nil {
		v := *e.RPE
		e.RPE = &v
	}
	if e.RIR != nil {
		v := *e.RIR
		e.RIR = &v
	}
	if e.SuggestedReps != nil {
		v := *e.SuggestedReps
		e.SuggestedReps = &v
	}
	if e.MethodConfig != nil {
		e.MethodConfig = append([]byte(nil), e.MethodConfig...)
	}
	return e
}
