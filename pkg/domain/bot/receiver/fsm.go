package receiver

import "sync"

// ---------- FSM ----------

type State int

const (
	StateStart State = iota
	StateMain
	StateQueue
	StateAdmitName
	StateAdmitService
	StateAdmitConfirm
	StateSettings
	StateHelp
)

// AdmitData is the walk-in being typed in by the operator.
type AdmitData struct {
	Name    string
	Service string // catalog key
}

type Session struct {
	State   State
	history []State
	Draft   AdmitData
}

func (s *Session) Go(to State) {
	if s.State == to {
		return
	}
	s.history = append(s.history, s.State)
	s.State = to
}

func (s *Session) Back() {
	if n := len(s.history); n > 0 {
		s.State = s.history[n-1]
		s.history = s.history[:n-1]
	} else {
		s.State = StateMain
	}
}

func (s *Session) ResetFlow() {
	s.State = StateMain
	s.history = s.history[:0]
	s.Draft = AdmitData{}
}

// ---------- Session store (in-memory, per chat) ----------

type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]*Session)}
}

func (s *Sessions) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[chatID]; ok {
		return sess
	}
	se := &Session{State: StateStart}
	s.m[chatID] = se
	return se
}

// Reset puts every chat back at the start screen, used after logout.
func (s *Sessions) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.m {
		sess.ResetFlow()
		sess.State = StateStart
	}
}
