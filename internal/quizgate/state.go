package quizgate

import (
	"errors"
	"fmt"
)

// State is a quiz attempt's position in the gate lifecycle.
type State string

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StatePassed     State = "passed"
	StateFailed     State = "failed"
)

// Outcome classifies a submitted attempt.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// ErrInvalidTransition is returned when an action is not allowed in the
// gate's current state.
var ErrInvalidTransition = errors.New("invalid quiz transition")

func transitionError(action string, from State) error {
	return fmt.Errorf("%s from %s: %w", action, from, ErrInvalidTransition)
}
