package detexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawnJoinReturnsValue(t *testing.T) {
	ex := New(1)
	result, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (int, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) { return 42, nil })
		return h.Join(tc)
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
}

func TestSpawnJoinPropagatesTaskError(t *testing.T) {
	wantErr := errors.New("boom")
	ex := New(1)
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (int, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) { return 0, wantErr })
		return h.Join(tc)
	})
	require.ErrorIs(t, err, wantErr)
}

func TestSpawnPanicSurfacesAsJoinError(t *testing.T) {
	ex := New(1)
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (int, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) {
			panic("kaboom")
		})
		return h.Join(tc)
	})
	var joinErr *JoinError
	require.ErrorAs(t, err, &joinErr)
	require.Equal(t, Panicked, joinErr.Kind)
	require.Contains(t, joinErr.Error(), "panicked")
}

func TestJoinHandleAbortBeforeCompletionCancels(t *testing.T) {
	ex := New(1)
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (struct{}, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) {
			tc.Sleep(time.Hour) // never fires within this run
			return 99, nil
		})
		h.Abort()
		_, joinErr := h.Join(tc)
		var je *JoinError
		require.ErrorAs(t, joinErr, &je)
		require.Equal(t, Cancelled, je.Kind)
		require.Contains(t, je.Error(), "cancelled")
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func TestJoinHandleAbortAfterCompletionIsNoop(t *testing.T) {
	ex := New(1)
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (struct{}, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) { return 1, nil })
		v, joinErr := h.Join(tc)
		require.NoError(t, joinErr)
		require.Equal(t, 1, v)
		h.Abort() // must not panic or change the already-recorded result
		v, joinErr = h.Join(tc)
		require.NoError(t, joinErr)
		require.Equal(t, 1, v)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func TestJoinHandleDetachDoesNotBlockProgress(t *testing.T) {
	ex := New(1)
	var ran bool
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (struct{}, error) {
		h := Spawn(tc, func(tc *TaskContext) (int, error) {
			ran = true
			return 1, nil
		})
		h.Detach()
		return struct{}{}, nil
	})
	require.NoError(t, err)
	require.True(t, ran, "a detached task still runs to completion")
}

func TestJoinErrorToIOErrorPreservesMessageAndUnwrap(t *testing.T) {
	je := &JoinError{ID: 7, Kind: Cancelled}
	ioErr := je.ToIOError()
	require.Equal(t, je.Error(), ioErr.Error())
	require.ErrorIs(t, ioErr, je)
}

func TestTaskIDsAreUniqueWithinAnExecutor(t *testing.T) {
	ex := New(3)
	seen := make(map[TaskID]bool)
	_, err := BlockOn(context.Background(), ex, func(tc *TaskContext) (struct{}, error) {
		seen[tc.TaskID()] = true
		for i := 0; i < 50; i++ {
			h := Spawn(tc, func(tc *TaskContext) (struct{}, error) {
				require.False(t, seen[tc.TaskID()], "duplicate TaskID observed")
				seen[tc.TaskID()] = true
				return struct{}{}, nil
			})
			_, jerr := h.Join(tc)
			require.NoError(t, jerr)
		}
		return struct{}{}, nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 51)
}
