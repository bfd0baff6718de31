package store

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

var (
	ErrTurnNotFound      = errors.New("turn not found")
	ErrIllegalTransition = errors.New("illegal turn transition")
)

// TransitionPolicy decides whether a turn may move between two statuses.
type TransitionPolicy interface {
	Allowed(from, to model.TurnStatus) bool
}

// Listener observes every committed snapshot. Listeners run in commit order
// while the store is locked and must not call back into the store.
type Listener func(prev, next State)

// Store is the single source of truth of the front desk. Readers load an
// immutable snapshot; writers clone, mutate and swap it under mu.
type Store struct {
	mu        sync.Mutex
	snap      atomic.Pointer[State]
	listeners []subscription
	nextID    int

	logger   zerolog.Logger
	clock    clock.Clock
	policy   TransitionPolicy
	capacity int
}

type subscription struct {
	id int
	fn Listener
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l.With().Str("component", "store").Logger() }
}

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithTransitions replaces the default walk-in lifecycle.
func WithTransitions(p TransitionPolicy) Option {
	return func(s *Store) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithPersisted seeds the store with a rehydrated subset.
func WithPersisted(p Persisted) Option {
	return func(s *Store) { s.snap.Store(initialState(&p)) }
}

func New(opts ...Option) *Store {
	s := &Store{
		logger:    zerolog.Nop(),
		clock:     clock.Real(),
		policy:    model.DefaultTransitions(),
		capacity:  DefaultNotificationCapacity,
	}
	s.snap.Store(initialState(nil))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l after the existing listeners and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

// update runs fn on a private clone and publishes it when fn reports a change.
func (s *Store) update(fn func(st *State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	next := prev.clone()
	if !fn(next) {
		return false
	}
	s.snap.Store(next)
	for _, sub := range s.listeners {
		sub.fn(*prev, *next)
	}
	return true
}

func (s *Store) Login(user model.User) {
	s.update(func(st *State) bool {
		u := user.Clone()
		st.Session = &u
		st.IsAuthenticated = true
		st.epoch++
		return true
	})
	s.logger.Info().Str("user", user.ID).Str("role", string(user.Role)).Msg("login")
}

// Logout ends the session and wipes the queue and notifications with it.
func (s *Store) Logout() {
	s.update(func(st *State) bool {
		st.Session = nil
		st.IsAuthenticated = false
		st.epoch++
		st.Turns = []model.Turn{}
		st.ActiveTurnID = ""
		st.Notifications = nil
		return true
	})
	s.logger.Info().Msg("logout")
}

// UpdateUser merges p into the session user. It reports false without a session.
func (s *Store) UpdateUser(p model.UserPatch) bool {
	return s.update(func(st *State) bool {
		if st.Session == nil {
			return false
		}
		u := st.Session.Merge(p)
		st.Session = &u
		return true
	})
}

// SetTurns replaces the collection after a full refresh. An active turn that
// is no longer listed is cleared.
func (s *Store) SetTurns(turns []model.Turn) {
	s.update(func(st *State) bool {
		s.replaceTurns(st, turns)
		return true
	})
}

// ApplySync installs a fetched turn list and stamps the sync time, but only
// while the session that started the fetch is still signed in. It reports
// whether the list was applied.
func (s *Store) ApplySync(epoch uint64, turns []model.Turn) bool {
	return s.update(func(st *State) bool {
		if !st.IsAuthenticated || st.epoch != epoch {
			return false
		}
		s.replaceTurns(st, turns)
		st.Connectivity.LastSync = s.clock.Now()
		return true
	})
}

func (s *Store) replaceTurns(st *State, turns []model.Turn) {
	st.Turns = make([]model.Turn, len(turns))
	for i, t := range turns {
		st.Turns[i] = t.Clone()
	}
	if st.ActiveTurnID != "" && st.turnIndex(st.ActiveTurnID) < 0 {
		s.logger.Debug().Str("turn", st.ActiveTurnID).Msg("active turn dropped by refresh")
		st.ActiveTurnID = ""
	}
}

func (s *Store) AddTurn(t model.Turn) {
	s.update(func(st *State) bool {
		st.Turns = append([]model.Turn{t.Clone()}, st.Turns...)
		return true
	})
}

// UpdateTurn merges p into the turn with the given id. A status change must be
// allowed by the transition policy.
func (s *Store) UpdateTurn(id string, p model.TurnPatch) error {
	var err error
	s.update(func(st *State) bool {
		i := st.turnIndex(id)
		if i < 0 {
			err = ErrTurnNotFound
			return false
		}
		cur := st.Turns[i]
		if p.Status != nil && *p.Status != cur.Status && !s.policy.Allowed(cur.Status, *p.Status) {
			err = ErrIllegalTransition
			s.logger.Warn().Str("turn", id).Str("from", string(cur.Status)).Str("to", string(*p.Status)).Msg("transition rejected")
			return false
		}
		st.Turns[i] = cur.Merge(p)
		return true
	})
	return err
}

// RemoveTurn deletes the turn, clearing the active turn in the same step when
// it matched. Removing an unknown id reports false.
func (s *Store) RemoveTurn(id string) bool {
	return s.update(func(st *State) bool {
		i := st.turnIndex(id)
		if i < 0 {
			return false
		}
		st.Turns = append(st.Turns[:i], st.Turns[i+1:]...)
		if st.ActiveTurnID == id {
			st.ActiveTurnID = ""
		}
		return true
	})
}

// SetActiveTurn focuses a turn present in the collection.
func (s *Store) SetActiveTurn(id string) bool {
	return s.update(func(st *State) bool {
		if st.turnIndex(id) < 0 {
			return false
		}
		st.ActiveTurnID = id
		return true
	})
}

func (s *Store) ClearActiveTurn() {
	s.update(func(st *State) bool {
		if st.ActiveTurnID == "" {
			return false
		}
		st.ActiveTurnID = ""
		return true
	})
}

// AddNotification prepends n and truncates the list to capacity, returning the
// ids that fell off the end.
func (s *Store) AddNotification(n model.Notification) (evicted []string) {
	s.update(func(st *State) bool {
		list := append([]model.Notification{n}, st.Notifications...)
		if len(list) > s.capacity {
			for _, old := range list[s.capacity:] {
				evicted = append(evicted, old.ID)
			}
			list = list[:s.capacity]
		}
		st.Notifications = list
		return true
	})
	return evicted
}

// RemoveNotification is idempotent; it reports whether the id was present.
func (s *Store) RemoveNotification(id string) bool {
	return s.update(func(st *State) bool {
		i := st.notificationIndex(id)
		if i < 0 {
			return false
		}
		st.Notifications = append(st.Notifications[:i], st.Notifications[i+1:]...)
		return true
	})
}

func (s *Store) ClearNotifications() {
	s.update(func(st *State) bool {
		if len(st.Notifications) == 0 {
			return false
		}
		st.Notifications = nil
		return true
	})
}

func (s *Store) UpdateSettings(p model.SettingsPatch) {
	s.update(func(st *State) bool {
		st.Settings = st.Settings.Merge(p)
		return true
	})
}

func (s *Store) SetOnlineStatus(online bool) {
	s.update(func(st *State) bool {
		if st.Connectivity.IsOnline == online {
			return false
		}
		st.Connectivity.IsOnline = online
		return true
	})
}

func (s *Store) SetLastSync(t time.Time) {
	s.update(func(st *State) bool {
		st.Connectivity.LastSync = t
		return true
	})
}

// MarkSynced records a successful sync at the store clock's current time.
func (s *Store) MarkSynced() {
	s.SetLastSync(s.clock.Now())
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) bool {
		if st.UI.Loading == loading {
			return false
		}
		st.UI.Loading = loading
		return true
	})
}

func (s *Store) ToggleSidebar() {
	s.update(func(st *State) bool {
		st.UI.SidebarOpen = !st.UI.SidebarOpen
		return true
	})
}
