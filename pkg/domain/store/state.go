package store

import "github.com/eduardlon/torresbarber/pkg/repository/model"

// DefaultNotificationCapacity bounds the visible notification list.
const DefaultNotificationCapacity = 10

// State is one immutable snapshot of the front desk. Turns and Notifications are
// ordered most-recent-first. The active turn is kept as an id into Turns.
type State struct {
	Session         *model.User
	IsAuthenticated bool
	Turns           []model.Turn
	ActiveTurnID    string
	Notifications   []model.Notification
	Settings        model.Settings
	Connectivity    model.Connectivity
	UI              model.UI

	// bumped by every Login and Logout
	epoch uint64
}

// Persisted is the subset of State that survives a restart.
type Persisted struct {
	Session         *model.User    `json:"session"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	Settings        model.Settings `json:"settings"`
}

func (s *State) clone() *State {
	out := *s
	if s.Session != nil {
		u := s.Session.Clone()
		out.Session = &u
	}
	out.Turns = make([]model.Turn, len(s.Turns))
	for i, t := range s.Turns {
		out.Turns[i] = t.Clone()
	}
	out.Notifications = append([]model.Notification(nil), s.Notifications...)
	return &out
}

func (s *State) persisted() Persisted {
	p := Persisted{IsAuthenticated: s.IsAuthenticated, Settings: s.Settings}
	if s.Session != nil {
		u := s.Session.Clone()
		p.Session = &u
	}
	return p
}

func (s *State) turnIndex(id string) int {
	for i := range s.Turns {
		if s.Turns[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) notificationIndex(id string) int {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			return i
		}
	}
	return -1
}

func initialState(p *Persisted) *State {
	s := &State{
		Settings:     model.DefaultSettings(),
		Connectivity: model.Connectivity{IsOnline: true},
		Turns:        []model.Turn{},
	}
	if p != nil {
		if p.Session != nil {
			u := p.Session.Clone()
			s.Session = &u
		}
		s.IsAuthenticated = p.IsAuthenticated && p.Session != nil
		s.Settings = p.Settings
	}
	return s
}

// Stats are counts derived from the turn collection.
type Stats struct {
	Total         int                      `json:"total"`
	ByStatus      map[model.TurnStatus]int `json:"by_status"`
	HasActiveTurn bool                     `json:"has_active_turn"`
}

func (st Stats) Waiting() int    { return st.ByStatus[model.TurnWaiting] }
func (st Stats) InProgress() int { return st.ByStatus[model.TurnInProgress] }
func (st Stats) Completed() int  { return st.ByStatus[model.TurnCompleted] }
func (st Stats) Cancelled() int  { return st.ByStatus[model.TurnCancelled] }

type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	Role          model.Role `json:"role,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
}

// PersistedSubset returns the part of the snapshot mirrored to durable storage.
func (s State) PersistedSubset() Persisted {
	return s.persisted()
}
