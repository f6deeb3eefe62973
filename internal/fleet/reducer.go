package fleet

import (
	"errors"
	"fmt"
)

// MaxCascadeSteps bounds the number of actions a single dispatch may apply.
const MaxCascadeSteps = 64

var ErrCascadeLimit = errors.New("cascade did not settle")

// Apply runs action against a copy of s and processes the follow-up actions
// it emits, first in first out, until none are left. It returns the new state
// and the actions that matched an entity, in the order they were applied.
// Actions naming an unknown entity are skipped. Legality is not checked here;
// see Validate.
func Apply(s State, action Action) (State, []Action, error) {
	next := s.Clone()
	action = Resolve(s, action)
	queue := []Action{action}
	var applied []Action

	for steps := 0; len(queue) > 0; steps++ {
		if steps >= MaxCascadeSteps {
			return s, nil, fmt.Errorf("%w after %d steps starting from %s", ErrCascadeLimit, steps, action.Kind())
		}
		a := queue[0]
		queue = queue[1:]

		follow, ok := a.apply(&next)
		if !ok {
			continue
		}
		applied = append(applied, a)
		queue = append(queue, follow...)
	}
	return next, applied, nil
}
