package agent

import "fmt"

// State of one invocation's lifecycle.
type State string

const (
	StateInit           State = "init"
	StateExecuting      State = "executing"
	StateSucceeded      State = "succeeded"
	StateNeedsAuth      State = "needs_auth"
	StateAuthenticating State = "authenticating"
	StateRetrying       State = "retrying"
	StateAuthFailed     State = "auth_failed"
	StateClosed         State = "closed"
)

// validTransitions defines the legal invocation state machine. Every
// state may reach closed so a failure anywhere still terminates the
// stream.
var validTransitions = map[State][]State{
	StateInit:           {StateExecuting, StateClosed},
	StateExecuting:      {StateSucceeded, StateNeedsAuth, StateClosed},
	StateNeedsAuth:      {StateAuthenticating, StateSucceeded, StateClosed},
	StateAuthenticating: {StateRetrying, StateAuthFailed, StateClosed},
	StateRetrying:       {StateSucceeded, StateClosed},
	StateSucceeded:      {StateClosed},
	StateAuthFailed:     {StateClosed},
}

// CanTransition checks whether a state transition is legal.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition reports an illegal state transition.
type ErrInvalidTransition struct {
	From State
	To   State
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}
