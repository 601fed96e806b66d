package printstate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned when a job cannot move between two states.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the lifecycle state of a print job. The same values tag the
// events recorded in a job's event log.
type State string

const (
	Queued    State = "Queued"
	Printing  State = "Printing"
	Completed State = "Completed"
	Failed    State = "Failed"
	Canceled  State = "Canceled"
)

// All lists every state in lifecycle order.
var All = []State{Queued, Printing, Completed, Failed, Canceled}

// transitions holds the legal edges of the job state machine.
var transitions = map[State][]State{
	Queued:   {Printing, Canceled},
	Printing: {Completed, Failed, Canceled},
}

// aliases maps the older status names used by the API onto states.
var aliases = map[string]State{
	"running":   Printing,
	"done":      Completed,
	"cancelled": Canceled,
}

// Parse converts a user supplied status into a State. Matching is case
// insensitive.
func Parse(s string) (State, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, st := range All {
		if strings.ToLower(string(st)) == key {
			return st, nil
		}
	}
	if st, ok := aliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown print job state %q", s)
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case Queued, Printing, Completed, Failed, Canceled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case Completed, Failed, Canceled:
		return true
	default:
		return false
	}
}

// Ending reports whether s closes a job's timeline. Failed is terminal but a
// failed tray is expected to be printed again, so it does not end the timeline.
func (s State) Ending() bool {
	return s == Completed || s == Canceled
}

// EventType returns the event tag recorded when a job enters s.
func (s State) EventType() State {
	return s
}

// Label is the human readable name of the state.
func (s State) Label() string {
	switch s {
	case Queued:
		return "Queued"
	case Printing:
		return "Printing"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Next returns the states reachable from s.
func (s State) Next() []State {
	return append([]State(nil), transitions[s]...)
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks a status change and explains why it is rejected.
func ValidateTransition(from, to State) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
