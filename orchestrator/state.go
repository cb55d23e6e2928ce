package orchestrator

import "github.com/getdrafty/drafty-go-sdk/core"

// State is a stage of the per-email workflow.
type State int

const (
	// StateTriage is the entry stage: the email is being classified.
	StateTriage State = iota

	// StateRespond means a reply should be drafted by the agent.
	StateRespond

	// StateDone is terminal. Both ignore and notify land here directly;
	// notify additionally surfaces the email to the user.
	StateDone
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateTriage:
		return "triage"
	case StateRespond:
		return "respond"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// NextState routes a triage label to the following stage. Routing is
// pure: same label, same state, no side effects.
func NextState(label core.Classification) State {
	if label == core.ClassifyRespond {
		return StateRespond
	}
	return StateDone
}
