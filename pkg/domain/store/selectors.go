package store

import "github.com/eduardlon/torresbarber/pkg/repository/model"

// Snapshot returns a private copy of the current state.
func (s *Store) Snapshot() State {
	return *s.snap.Load().clone()
}

// Persisted returns the subset mirrored to durable storage.
func (s *Store) Persisted() Persisted {
	return s.snap.Load().persisted()
}

func (s *Store) Session() *model.User {
	st := s.snap.Load()
	if st.Session == nil {
		return nil
	}
	u := st.Session.Clone()
	return &u
}

func (s *Store) IsAuthenticated() bool {
	return s.snap.Load().IsAuthenticated
}

// SessionEpoch identifies the current session boundary. It changes on every
// login and logout.
func (s *Store) SessionEpoch() uint64 {
	return s.snap.Load().epoch
}

func (s *Store) AuthStatus() AuthStatus {
	st := s.snap.Load()
	if !st.IsAuthenticated || st.Session == nil {
		return AuthStatus{}
	}
	return AuthStatus{Authenticated: true, Role: st.Session.Role, UserID: st.Session.ID}
}

// Turns returns the collection, most recent first.
func (s *Store) Turns() []model.Turn {
	return s.snap.Load().clone().Turns
}

func (s *Store) Turn(id string) (model.Turn, bool) {
	st := s.snap.Load()
	i := st.turnIndex(id)
	if i < 0 {
		return model.Turn{}, false
	}
	return st.Turns[i].Clone(), true
}

// ActiveTurn resolves the focused turn from the collection, or nil.
func (s *Store) ActiveTurn() *model.Turn {
	st := s.snap.Load()
	return activeTurn(st)
}

func activeTurn(st *State) *model.Turn {
	if st.ActiveTurnID == "" {
		return nil
	}
	i := st.turnIndex(st.ActiveTurnID)
	if i < 0 {
		return nil
	}
	t := st.Turns[i].Clone()
	return &t
}

// ActiveTurn resolves the focused turn of a snapshot.
func (st State) ActiveTurn() *model.Turn {
	return activeTurn(&st)
}

// Notifications returns the visible notifications, most recent first.
func (s *Store) Notifications() []model.Notification {
	return append([]model.Notification(nil), s.snap.Load().Notifications...)
}

func (s *Store) HasNotification(id string) bool {
	return s.snap.Load().notificationIndex(id) >= 0
}

// UnreadCount equals the number of visible notifications; there is no read flag.
func (s *Store) UnreadCount() int {
	return len(s.snap.Load().Notifications)
}

func (s *Store) Settings() model.Settings {
	return s.snap.Load().Settings
}

func (s *Store) Connectivity() model.Connectivity {
	return s.snap.Load().Connectivity
}

func (s *Store) UI() model.UI {
	return s.snap.Load().UI
}

// Stats counts turns by status on every call.
func (s *Store) Stats() Stats {
	return s.snap.Load().Stats()
}

func (st State) Stats() Stats {
	out := Stats{
		Total:    len(st.Turns),
		ByStatus: make(map[model.TurnStatus]int, len(model.TurnStatuses)),
	}
	for _, status := range model.TurnStatuses {
		out.ByStatus[status] = 0
	}
	for _, t := range st.Turns {
		out.ByStatus[t.Status]++
	}
	out.HasActiveTurn = activeTurn(&st) != nil
	return out
}
