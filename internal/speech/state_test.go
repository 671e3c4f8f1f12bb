package speech

import "testing"

// TestStateTypeString tests the String() method for StateType.
func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StateInitializing, "initializing"},
		{StateReady, "ready"},
		{StateSpeaking, "speaking"},
		{StateStopping, "stopping"},
		{StateError, "error"},
		{StateType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("StateType.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests valid and invalid transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []StateType
		ok   bool
	}{
		{"init to ready", []StateType{StateInitializing, StateReady}, true},
		{"full lifecycle", []StateType{StateInitializing, StateReady, StateSpeaking, StateReady, StateStopping, StateIdle}, true},
		{"init failure", []StateType{StateInitializing, StateError, StateInitializing, StateReady}, true},
		{"idle straight to ready", []StateType{StateReady}, false},
		{"idle straight to speaking", []StateType{StateSpeaking}, false},
		{"speaking to idle", []StateType{StateInitializing, StateReady, StateSpeaking, StateIdle}, false},
		{"stopping back to ready", []StateType{StateInitializing, StateReady, StateStopping, StateReady}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newStateMachine()
			ok := true
			for _, next := range tt.path {
				if !sm.transition(next) {
					ok = false
					break
				}
			}
			if ok != tt.ok {
				t.Errorf("path %v: valid = %v, want %v (ended in %s)", tt.path, ok, tt.ok, sm.state())
			}
		})
	}
}

// TestStateMachineRejectsWithoutMoving tests that a rejected transition
// leaves the state untouched.
func TestStateMachineRejectsWithoutMoving(t *testing.T) {
	sm := newStateMachine()
	if sm.transition(StateSpeaking) {
		t.Fatal("idle -> speaking should be invalid")
	}
	if sm.state() != StateIdle {
		t.Errorf("state moved to %s after rejected transition", sm.state())
	}
}

// TestIsRecoverable tests error classification.
func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"playback failure", ErrPlayback, true},
		{"queue full", ErrQueueFull, true},
		{"canceled", ErrCanceled, true},
		{"engine init", ErrEngineInit, false},
		{"closed", ErrClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
