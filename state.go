package detexec

import (
	"sync/atomic"
)

// ExecutorState represents the current lifecycle state of an [Executor].
//
// State Machine:
//
//	StateIdle (0) → StateRunning (1)        [BlockOn start]
//	StateRunning (1) → StateFinished (2)    [root future completes]
//	StateRunning (1) → StateFailed (3)      [deadlock, time limit, or context done]
//
// StateFinished and StateFailed are terminal: once reached, an [Executor]
// may not be reused for another [BlockOn] call.
type ExecutorState uint64

const (
	// StateIdle indicates the executor has been constructed but BlockOn has
	// not yet been called.
	StateIdle ExecutorState = iota
	// StateRunning indicates BlockOn is actively draining the ready queue
	// and advancing virtual time.
	StateRunning
	// StateFinished indicates the root future completed normally.
	StateFinished
	// StateFailed indicates BlockOn aborted with a fatal error (deadlock or
	// time-limit exceeded) or because its context was done.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s ExecutorState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateFinished:
		return "Finished"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// atomicState is a lock-free state machine used so [Executor.State] may be
// queried from any goroutine while BlockOn runs on its own.
//
// Transitions use CAS (TryTransition); the terminal states are set with
// Store since no further transition out of them is ever valid.
type atomicState struct {
	v atomic.Uint64
}

func (s *atomicState) Load() ExecutorState {
	return ExecutorState(s.v.Load())
}

func (s *atomicState) Store(state ExecutorState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one state to another,
// returning whether it succeeded.
func (s *atomicState) TryTransition(from, to ExecutorState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// isTerminal reports whether the state machine has reached a terminal state.
func (s *atomicState) isTerminal() bool {
	switch s.Load() {
	case StateFinished, StateFailed:
		return true
	default:
		return false
	}
}
