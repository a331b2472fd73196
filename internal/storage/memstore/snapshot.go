package memstore

import (
	"sort"

	"github.com/claude/repcycle/internal/models"
)

// Snapshot is a serializable copy of the whole store. Slices are sorted so
// that equal states produce equal snapshots.
type Snapshot struct {
	Users      []models.User      `json:"users"`
	Mesocycles []models.Mesocycle `json:"mesocycles"`
	Sessions   []models.Session   `json:"sessions"`
	Feedback   []models.Feedback  `json:"feedback"`
	Landmarks  []models.Landmark  `json:"landmarks"`
}

// Export returns a snapshot of the committed state.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.state)
}

// Import replaces the committed state with snap. It does not run the commit hook.
func (s *Store) Import(snap Snapshot) {
	st := stateOf(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func snapshotOf(st state) Snapshot {
	var snap Snapshot
	for _, u := range st.users {
		snap.Users = append(snap.Users, u)
	}
	sort.Slice(snap.Users, func(i, j int) bool { return snap.Users[i].ID < snap.Users[j].ID })

	for _, m := range st.mesocycles {
		snap.Mesocycles = append(snap.Mesocycles, cloneMesocycle(m))
	}
	sort.Slice(snap.Mesocycles, func(i, j int) bool {
		return snap.Mesocycles[i].ID.String() < snap.Mesocycles[j].ID.String()
	})

	for _, sess := range st.sessions {
		snap.Sessions = append(snap.Sessions, cloneSession(sess))
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].ID.String() < snap.Sessions[j].ID.String()
	})

	for _, f := range st.feedback {
		snap.Feedback = append(snap.Feedback, f)
	}
	sort.Slice(snap.Feedback, func(i, j int) bool {
		return snap.Feedback[i].ID.String() < snap.Feedback[j].ID.String()
	})

	for _, l := range st.landmarks {
		snap.Landmarks = append(snap.Landmarks, l)
	}
	sort.Slice(snap.Landmarks, func(i, j int) bool {
		a, b := snap.Landmarks[i], snap.Landmarks[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.MuscleGroupID < b.MuscleGroupID
	})
	return snap
}

func stateOf(snap Snapshot) state {
	st := newState()
	for _, u := range snap.Users {
		st.users[u.ID] = u
		st.logins[u.Login] = u.ID
	}
	for _, m := range snap.Mesocycles {
		st.mesocycles[m.ID] = cloneMesocycle(m)
	}
	for _, sess := range snap.Sessions {
		for _, e := range sess.Exercises {
			st.exercises[e.ID] = sess.ID
		}
		st.sessions[sess.ID] = cloneSession(sess)
	}
	for _, f := range snap.Feedback {
		st.feedback[f.SessionID] = f
	}
	for _, l := range snap.Landmarks {
		st.landmarks[landmarkKey{l.UserID, l.MuscleGroupID}] = l
	}
	return st
}
