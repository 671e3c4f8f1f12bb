package speech

// StateType represents the current state of the dispatcher.
type StateType int

const (
	// StateIdle indicates the dispatcher has not been initialized.
	StateIdle StateType = iota
	// StateInitializing indicates the engine is starting up.
	StateInitializing
	// StateReady indicates the worker is waiting for requests.
	StateReady
	// StateSpeaking indicates a request is being synthesized or played.
	StateSpeaking
	// StateStopping indicates the dispatcher is shutting down.
	StateStopping
	// StateError indicates the engine failed to initialize or became
	// unusable mid-run.
	StateError
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSpeaking:
		return "speaking"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// stateMachine guards dispatcher state transitions. It is not safe for
// concurrent use; the dispatcher serializes access under its own mutex.
type stateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:         {StateInitializing},
			StateInitializing: {StateReady, StateError},
			StateReady:        {StateSpeaking, StateStopping},
			StateSpeaking:     {StateReady, StateStopping, StateError},
			StateStopping:     {StateIdle},
			StateError:        {StateIdle, StateInitializing},
		},
	}
}

// transition moves to the given state, reporting whether the move was valid.
func (sm *stateMachine) transition(to StateType) bool {
	for _, valid := range sm.transitions[sm.current] {
		if valid == to {
			sm.current = to
			return true
		}
	}
	return false
}

func (sm *stateMachine) state() StateType {
	return sm.current
}
