package queue

import (
	"fmt"
	"slices"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

type Transitions = model.Transitions

func DefaultTransitions() Transitions { return model.DefaultTransitions() }

// ParseTransitions builds a table from configuration, e.g.
// {"completed": ["in_progress"]} to let staff undo a finish.
func ParseTransitions(raw map[string][]string) (Transitions, error) {
	out := Transitions{}
	for from, tos := range raw {
		f, err := parseStatus(from)
		if err != nil {
			return nil, err
		}
		for _, to := range tos {
			t, err := parseStatus(to)
			if err != nil {
				return nil, err
			}
			out[f] = append(out[f], t)
		}
	}
	return out, nil
}

func parseStatus(s string) (model.TurnStatus, error) {
	st := model.TurnStatus(s)
	if !slices.Contains(model.TurnStatuses, st) {
		return "", fmt.Errorf("unknown turn status %q", s)
	}
	return st, nil
}
