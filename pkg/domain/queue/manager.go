package queue

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

// AdmitInput describes a walk-in client joining the queue.
type AdmitInput struct {
	ClientName    string
	ClientPhone   *string
	Service       string
	EstimatedTime int
	BarberID      *string
	Notes         *string
}

// Manager applies staff actions to turns held in the store.
type Manager struct {
	store  *store.Store
	rules  Transitions
	clock  clock.Clock
	logger zerolog.Logger
}

func NewManager(s *store.Store, rules Transitions, c clock.Clock, logger zerolog.Logger) *Manager {
	if rules == nil {
		rules = DefaultTransitions()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Manager{
		store:  s,
		rules:  rules,
		clock:  c,
		logger: logger.With().Str("component", "queue").Logger(),
	}
}

func (m *Manager) Rules() Transitions { return m.rules }

// Admit creates a waiting turn at the head of the queue.
func (m *Manager) Admit(in AdmitInput) model.Turn {
	t := model.Turn{
		ID:            uuid.NewString(),
		ClientName:    in.ClientName,
		ClientPhone:   in.ClientPhone,
		Service:       in.Service,
		Status:        model.TurnWaiting,
		EstimatedTime: in.EstimatedTime,
		CreatedAt:     m.clock.Now(),
		BarberID:      in.BarberID,
		Notes:         in.Notes,
	}
	m.store.AddTurn(t)
	m.logger.Info().Str("turn", t.ID).Str("service", t.Service).Msg("admitted")
	return t
}

// Transition moves a turn to status to, validating against the table.
func (m *Manager) Transition(id string, to model.TurnStatus) (model.Turn, error) {
	cur, ok := m.store.Turn(id)
	if !ok {
		return model.Turn{}, store.ErrTurnNotFound
	}
	if cur.Status == to {
		return cur, nil
	}
	if !m.rules.Allowed(cur.Status, to) {
		return cur, store.ErrIllegalTransition
	}
	if err := m.store.UpdateTurn(id, model.TurnPatch{Status: &to}); err != nil {
		return cur, err
	}
	updated, _ := m.store.Turn(id)
	m.logger.Info().Str("turn", id).Str("from", string(cur.Status)).Str("to", string(to)).Msg("transition")
	return updated, nil
}

// Start puts a turn in service and focuses it.
func (m *Manager) Start(id string) (model.Turn, error) {
	t, err := m.Transition(id, model.TurnInProgress)
	if err != nil {
		return t, err
	}
	m.store.SetActiveTurn(id)
	return t, nil
}

func (m *Manager) Finish(id string) (model.Turn, error) {
	return m.close(id, model.TurnCompleted)
}

func (m *Manager) Cancel(id string) (model.Turn, error) {
	return m.close(id, model.TurnCancelled)
}

func (m *Manager) close(id string, to model.TurnStatus) (model.Turn, error) {
	t, err := m.Transition(id, to)
	if err != nil {
		return t, err
	}
	if a := m.store.ActiveTurn(); a != nil && a.ID == id {
		m.store.ClearActiveTurn()
	}
	return t, nil
}

// Remove deletes the turn outright, whatever its status.
func (m *Manager) Remove(id string) bool {
	if !m.store.RemoveTurn(id) {
		return false
	}
	m.logger.Info().Str("turn", id).Msg("turn removed")
	return true
}

func (m *Manager) Focus(id string) bool {
	return m.store.SetActiveTurn(id)
}

func (m *Manager) Unfocus() {
	m.store.ClearActiveTurn()
}

func (m *Manager) Stats() store.Stats {
	return m.store.Stats()
}

// Next returns the oldest waiting turn.
func (m *Manager) Next() (model.Turn, bool) {
	turns := m.store.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Status == model.TurnWaiting {
			return turns[i], true
		}
	}
	return model.Turn{}, false
}

// Open returns non-terminal turns in arrival order.
func (m *Manager) Open() []model.Turn {
	turns := m.store.Turns()
	out := make([]model.Turn, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		if !m.rules.Terminal(turns[i].Status) {
			out = append(out, turns[i])
		}
	}
	return out
}
