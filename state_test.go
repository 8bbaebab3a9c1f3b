package detexec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutorStateString(t *testing.T) {
	cases := map[ExecutorState]string{
		StateIdle:              "Idle",
		StateRunning:           "Running",
		StateFinished:          "Finished",
		StateFailed:            "Failed",
		ExecutorState(0xFFFF): "Unknown",
	}
	for state, want := range cases {
		require.Equal(t, want, state.String())
	}
}

func TestAtomicStateTryTransition(t *testing.T) {
	var s atomicState
	require.Equal(t, StateIdle, s.Load())

	require.True(t, s.TryTransition(StateIdle, StateRunning))
	require.False(t, s.TryTransition(StateIdle, StateRunning), "wrong `from` must fail")
	require.Equal(t, StateRunning, s.Load())

	require.True(t, s.TryTransition(StateRunning, StateFinished))
	require.True(t, s.isTerminal())
}

func TestAtomicStateFailedIsTerminal(t *testing.T) {
	var s atomicState
	s.Store(StateFailed)
	require.True(t, s.isTerminal())
}
