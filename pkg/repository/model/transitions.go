package model

import "slices"

// Transitions maps a status to the statuses a turn may move to from it.
// Statuses without an entry are terminal.
type Transitions map[TurnStatus][]TurnStatus

// DefaultTransitions is the walk-in lifecycle: waiting -> in_progress -> completed,
// with cancellation from either open status.
func DefaultTransitions() Transitions {
	return Transitions{
		TurnWaiting:    {TurnInProgress, TurnCancelled},
		TurnInProgress: {TurnCompleted, TurnCancelled},
	}
}

func (tr Transitions) Allowed(from, to TurnStatus) bool {
	return slices.Contains(tr[from], to)
}

func (tr Transitions) Terminal(s TurnStatus) bool {
	return len(tr[s]) == 0
}
