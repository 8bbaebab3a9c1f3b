package detexec

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TaskInfo is the immutable identity of a spawned task: its ID and a pinned
// reference to the [NodeInfo] it was spawned against. The node reference
// never migrates, even across a later kill/restart of that node.
type TaskInfo struct {
	ID   TaskID
	node *NodeInfo
	span trace.Span
}

// Node returns the [NodeInfo] this task is pinned to.
func (i *TaskInfo) Node() *NodeInfo { return i.node }

// TaskFunc is a schedulable computation. It cooperates with the executor by
// calling [TaskContext.Yield] or [TaskContext.Sleep] at the points where it
// is willing to give up control; a TaskFunc that never does either runs to
// completion in a single poll.
type TaskFunc[T any] func(tc *TaskContext) (T, error)

// cancelSentinel unwinds a task's goroutine on abort. It is only ever
// thrown and recovered internally; it never escapes a [TaskFunc] call.
type cancelSentinel struct{}

// taskState is the non-generic core of a spawned task: the channel baton
// driving its goroutine one suspension point at a time, and its outcome
// once done. [JoinHandle] wraps this with the task's result type.
type taskState struct {
	info      *TaskInfo
	exec      *Executor
	cancelled atomic.Bool
	done      atomic.Bool
	step      chan struct{} // executor -> goroutine: run to next suspension point
	yielded   chan struct{} // goroutine -> executor: suspended, not yet done
	resultCh  chan struct{} // closed once value/err are safe to read
	value     any
	err       error
}

// poll invokes the task's runnable exactly once: it either runs until the
// next suspension point (returns false) or to completion (returns true).
// Already-finished tasks return true immediately without touching the
// goroutine, covering the "wake after completion" case.
func (ts *taskState) poll() bool {
	if ts.done.Load() {
		return true
	}
	ts.step <- struct{}{}
	select {
	case <-ts.yielded:
		return false
	case <-ts.resultCh:
		return true
	}
}

// TaskContext is threaded through a running [TaskFunc], exposing the
// cooperative suspension points and task/node identity. It plays the role a
// thread-local "current task" slot would play in a threaded runtime, but as
// an explicit parameter rather than ambient state — the idiomatic Go shape
// for the same contract, and the mechanism [Spawn] and friends resolve "the
// calling task's node" from.
type TaskContext struct {
	exec *Executor
	ts   *taskState
}

// TaskID returns the ID of the task this context belongs to.
func (tc *TaskContext) TaskID() TaskID { return tc.ts.info.ID }

// Node returns the [NodeInfo] this task is pinned to.
func (tc *TaskContext) Node() *NodeInfo { return tc.ts.info.node }

// Yield suspends the task, immediately re-enqueuing it onto the ready
// queue so it becomes eligible for another poll, possibly within the same
// drain pass, since a drain pass runs until the queue is empty.
func (tc *TaskContext) Yield() {
	tc.suspend(func() { tc.exec.enqueue(tc.ts) })
}

// Sleep suspends the task until the executor's [Clock] advances at least d
// past the current elapsed time, then re-enqueues it.
func (tc *TaskContext) Sleep(d time.Duration) {
	tc.suspend(func() {
		tc.exec.clock.ScheduleAfter(d, func() { tc.exec.enqueue(tc.ts) })
	})
}

// suspend is the single await point every cooperative suspension goes
// through. An abort that raced in before or during the suspension is
// observed here, which is what makes "a task aborted mid-await simply
// stops being polled" true: apart from the check before a task's first
// poll runs its function (in spawnTask), this is the only place
// cancellation is checked, and callers never query their own cancellation
// directly.
func (tc *TaskContext) suspend(wake func()) {
	ts := tc.ts
	if ts.cancelled.Load() {
		panic(cancelSentinel{})
	}
	// wake must be armed before the executor is told this task suspended:
	// once yielded is signalled, the executor may immediately decide there
	// is no more ready work and ask the clock for its next event, so the
	// timer (or requeue) this task is waiting on has to already exist.
	wake()
	ts.yielded <- struct{}{}
	<-ts.step
	if ts.cancelled.Load() {
		panic(cancelSentinel{})
	}
}

// JoinHandle is returned by [Spawn] and friends. It is generic over the
// task's result type, joinable, abortable, and safe to discard: a
// JoinHandle that is never joined simply detaches, the Go equivalent of the
// source contract's "dropping the handle without awaiting".
type JoinHandle[T any] struct {
	ts *taskState
}

// ID returns the task's [TaskID].
func (h *JoinHandle[T]) ID() TaskID { return h.ts.info.ID }

// TryResult non-blockingly reports the task's outcome. ok is false while
// the task is still running.
func (h *JoinHandle[T]) TryResult() (result T, err error, ok bool) {
	if !h.ts.done.Load() {
		return result, nil, false
	}
	if h.ts.err != nil {
		return result, h.ts.err, true
	}
	result, _ = h.ts.value.(T)
	return result, nil, true
}

// Join suspends the calling task (via repeated [TaskContext.Yield]) until
// this handle's task completes, then returns its outcome. An abnormal
// outcome is a *[JoinError].
func (h *JoinHandle[T]) Join(tc *TaskContext) (T, error) {
	for {
		if result, err, ok := h.TryResult(); ok {
			return result, err
		}
		tc.Yield()
	}
}

// Abort cancels the task. Idempotent, and safe to call after the task has
// already completed (a no-op in that case): the next time this task is
// polled it unwinds instead of running, surfacing as a [JoinError] of kind
// [Cancelled] to any joiner.
func (h *JoinHandle[T]) Abort() {
	h.ts.cancelled.Store(true)
}

// Detach explicitly documents that the caller does not intend to [Join]
// this handle. It is a no-op: Go has no destructor to hook, and an
// un-joined handle already detaches by construction. It exists only so
// call sites can state intent, matching the awaitable-handle contract.
func (h *JoinHandle[T]) Detach() {}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// spawnTask allocates a TaskID, builds the task's goroutine, and enqueues
// its first poll.
func spawnTask[T any](exec *Executor, node *NodeInfo, fn TaskFunc[T]) *JoinHandle[T] {
	id := TaskID(exec.ids.next())
	_, span := exec.tracer.Start(context.Background(), "task")
	span.SetAttributes(
		attribute.Int64("task.id", int64(id)),
		attribute.Int64("node.id", int64(node.ID)),
		attribute.String("node.name", node.Name),
	)
	info := &TaskInfo{ID: id, node: node, span: span}
	ts := &taskState{
		info:     info,
		exec:     exec,
		step:     make(chan struct{}),
		yielded:  make(chan struct{}),
		resultCh: make(chan struct{}),
	}
	tc := &TaskContext{exec: exec, ts: ts}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(cancelSentinel); ok {
					ts.err = &JoinError{ID: id, Kind: Cancelled}
					exec.metrics.tasksAborted.add(1)
				} else {
					ts.err = &JoinError{ID: id, Kind: Panicked, Cause: panicToError(r)}
				}
			}
			span.End()
			ts.done.Store(true)
			close(ts.resultCh)
			logTaskEvent(exec.logger, "complete", id, node.ID)
		}()
		<-ts.step
		if ts.cancelled.Load() {
			panic(cancelSentinel{})
		}
		value, err := fn(tc)
		ts.value = value
		ts.err = err
	}()

	exec.enqueue(ts)
	exec.metrics.tasksSpawned.add(1)
	logTaskEvent(exec.logger, "spawn", id, node.ID)
	return &JoinHandle[T]{ts: ts}
}

// Spawn schedules fn on the calling task's node and returns a [JoinHandle].
// tc identifies the calling task, resolving the "spawn on my own node" rule
// explicitly rather than through ambient thread-local lookup.
func Spawn[T any](tc *TaskContext, fn TaskFunc[T]) *JoinHandle[T] {
	return spawnTask(tc.exec, tc.ts.info.node, fn)
}

// SpawnLocal is identical to [Spawn] in this single-threaded executor: a
// send/local distinction only matters for rejecting non-sendable values at
// compile time in runtimes that move tasks across OS threads, and has no
// observable effect here.
func SpawnLocal[T any](tc *TaskContext, fn TaskFunc[T]) *JoinHandle[T] {
	return Spawn(tc, fn)
}

// SpawnBlocking schedules a plain function as if it were a task that
// immediately runs to completion without ever suspending.
func SpawnBlocking[T any](tc *TaskContext, fn func() (T, error)) *JoinHandle[T] {
	return Spawn(tc, func(*TaskContext) (T, error) { return fn() })
}

// SpawnOn schedules fn on the node bound to h, independent of any calling
// task. Used for a node's initial bootstrap task(s) and for the root task
// wrapping [BlockOn]'s computation, where there is no existing
// [TaskContext] to spawn from.
func SpawnOn[T any](h *NodeHandle, fn TaskFunc[T]) *JoinHandle[T] {
	return spawnTask(h.exec, h.info, fn)
}
