package detexec

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Metrics holds atomic counters updated as an [Executor] runs. Trimmed
// relative to a wall-clock event loop's metrics: this simulator has no real
// latency percentiles to sample, only counts and the virtual clock itself.
type Metrics struct {
	tasksSpawned   atomicCounter
	tasksCompleted atomicCounter
	tasksAborted   atomicCounter
	pollCount      atomicCounter
}

// MetricsSnapshot is a point-in-time copy of an [Executor]'s [Metrics].
type MetricsSnapshot struct {
	TasksSpawned   int64
	TasksCompleted int64
	TasksAborted   int64
	PollCount      int64
	Elapsed        time.Duration
}

// Executor is the single-threaded cooperative scheduler: it owns a
// [Registry], a [ReadyQueue], and a [Clock], and drives a root [TaskFunc]
// to completion via [BlockOn].
//
// All exported methods are safe to call from any goroutine except BlockOn
// itself, which must run to completion on one goroutine (it is the
// scheduler's single polling thread, per the concurrency model: wakers and
// lifecycle calls may cross threads, polling never does).
type Executor struct {
	rng       RNG
	clock     Clock
	logger    *Logger
	tracer    trace.Tracer
	timeLimit time.Duration

	queue    *ReadyQueue
	registry *Registry
	ids      idCounter
	state    atomicState
	metrics  Metrics
}

// New constructs a fresh [Executor] seeded for determinism, with an empty
// node registry and the implicit main node pre-installed.
func New(seed uint64, opts ...Option) *Executor {
	c := resolveConfig(seed, opts)
	ex := &Executor{
		rng:       c.rng,
		clock:     c.clock,
		logger:    c.logger,
		tracer:    c.tracerProvider.Tracer("github.com/joeycumines/go-detexec"),
		timeLimit: c.timeLimit,
		queue:     newReadyQueue(),
	}
	ex.registry = newRegistry(ex)
	return ex
}

// State returns the executor's current [ExecutorState]. Safe to call from
// any goroutine, including concurrently with a running BlockOn.
func (ex *Executor) State() ExecutorState { return ex.state.Load() }

// Registry returns the node registry, for node lifecycle calls
// (CreateNode/Pause/Resume/Kill/Restart/GetNode).
func (ex *Executor) Registry() *Registry { return ex.registry }

// Metrics returns a point-in-time snapshot of the executor's counters.
func (ex *Executor) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TasksSpawned:   ex.metrics.tasksSpawned.load(),
		TasksCompleted: ex.metrics.tasksCompleted.load(),
		TasksAborted:   ex.metrics.tasksAborted.load(),
		PollCount:      ex.metrics.pollCount.load(),
		Elapsed:        ex.clock.Elapsed(),
	}
}

// enqueue places ts's next poll onto the ready queue. Called by wakers
// (Yield's immediate reschedule, Sleep's timer callback) and by spawnTask
// for a task's initial poll.
func (ex *Executor) enqueue(ts *taskState) {
	ex.queue.send(readyEntry{poll: ts.poll, info: ts.info})
}

// BlockOn drives fn, spawned on the main node, to completion: draining the
// ready queue, advancing virtual time to each next event when the queue
// empties, and returning fn's result once its task completes.
//
// BlockOn is a free function rather than a method because Go methods
// cannot carry their own type parameters; T is fn's result type.
func BlockOn[T any](ctx context.Context, ex *Executor, fn TaskFunc[T]) (T, error) {
	var zero T
	if !ex.state.TryTransition(StateIdle, StateRunning) {
		return zero, ErrExecutorFinished
	}

	main, err := ex.registry.GetNode(MainNodeID)
	if err != nil {
		// unreachable: the main node is always pre-installed by New.
		ex.state.Store(StateFailed)
		return zero, err
	}
	root := SpawnOn(main, fn)

	for {
		ex.drain()

		if result, joinErr, ok := root.TryResult(); ok {
			ex.state.Store(StateFinished)
			return result, joinErr
		}

		select {
		case <-ctx.Done():
			ex.state.Store(StateFailed)
			return zero, ctx.Err()
		default:
		}

		if !ex.clock.AdvanceToNextEvent() {
			ex.state.Store(StateFailed)
			return zero, WrapFatal(ErrDeadlock, "block_on")
		}
		if ex.timeLimit > 0 && ex.clock.Elapsed() > ex.timeLimit {
			ex.state.Store(StateFailed)
			return zero, WrapFatal(ErrTimeLimitExceeded, "block_on")
		}
	}
}

// drain pops random ready entries until the queue is empty, routing each
// past killed/paused nodes before polling it.
func (ex *Executor) drain() {
	for {
		entry, ok := ex.queue.tryRecvRandom(ex.rng)
		if !ok {
			return
		}
		if !ex.registry.parkOrRoute(entry) {
			continue
		}
		ex.pollEntry(entry)
	}
}

// pollEntry polls one entry's runnable to its next suspension point (or to
// completion) and applies the post-poll virtual-time bump, which the
// concurrency model requires after every individual poll, not once per
// drain pass.
func (ex *Executor) pollEntry(entry readyEntry) {
	currentNode.Store(entry.info.node)
	ex.metrics.pollCount.add(1)
	completed := entry.poll()
	currentNode.Store(nil)

	ex.clock.Advance(time.Duration(genRange(ex.rng, 50, 100)) * time.Nanosecond)
	if completed {
		ex.metrics.tasksCompleted.add(1)
	}
}
