// Package upload contains the transfer engine: the per-file transfer unit,
// the wave scheduler, the job state machine, and the orchestrator that ties
// them to the checkpoint store and the backend.
package upload

import (
	"fmt"
	"sync"
)

// State is a job lifecycle state.
type State string

const (
	StateIdle        State = "idle"
	StateCreatingJob State = "creating_job"
	StateUploading   State = "uploading"
	StateCompleting  State = "completing"
	StateComplete    State = "complete"
	StateError       State = "error"
)

// transitions lists the legal moves. Idle → Uploading exists because resume
// re-enters Uploading directly: the job already exists, so CreatingJob is
// skipped. Complete and Error are terminal; a fresh job gets a fresh machine.
var transitions = map[State][]State{
	StateIdle:        {StateCreatingJob, StateUploading},
	StateCreatingJob: {StateUploading, StateError},
	StateUploading:   {StateCompleting, StateError},
	StateCompleting:  {StateComplete, StateError},
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// Machine is the finite state machine governing what the orchestrator and its
// caller may do at any time. One Machine instance serves one job.
type Machine struct {
	mu    sync.Mutex
	state State
	cause string
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// Current returns the machine's state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Cause returns the human-readable reason recorded when the machine entered
// Error, or "".
func (m *Machine) Cause() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}

// Transition moves the machine to next, or returns a *TransitionError when
// the move is not legal from the current state.
func (m *Machine) Transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return &TransitionError{From: m.state, To: next}
}

// Fail moves the machine to the absorbing Error state, recording cause. It is
// a no-op when the machine is already terminal.
func (m *Machine) Fail(cause string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateComplete || m.state == StateError {
		return
	}
	m.state = StateError
	m.cause = cause
}
