package backend

import "fmt"

// State is the registry lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Status is the registry state plus the backend it refers to.
type Status struct {
	State   State
	Backend string
	// Reason is set when State is StateFailed.
	Reason string
}

// Ready reports whether a backend can serve estimates.
func (s Status) Ready() bool {
	return s.State == StateReady
}

func (s Status) String() string {
	switch s.State {
	case StateReady, StateInitializing:
		return fmt.Sprintf("%s (%s)", s.State, s.Backend)
	case StateFailed:
		if s.Backend == "" {
			return fmt.Sprintf("failed: %s", s.Reason)
		}
		return fmt.Sprintf("failed (%s): %s", s.Backend, s.Reason)
	default:
		return s.State.String()
	}
}
