// Package detexec provides a deterministic, single-threaded cooperative task
// executor for discrete-event simulation: the scheduler at the heart of a
// testing harness that drives asynchronous work under a virtual clock across
// multiple independently pausable, killable, and restartable logical nodes.
//
// # Architecture
//
// An [Executor] drains a single ready queue fed by every spawned task's
// waker. Tasks are created via [Spawn] / [SpawnLocal] (resolving the
// caller's current node from the explicit [TaskContext] argument) and are
// bound for their lifetime to one node, tracked by a [Registry]. [BlockOn]
// repeatedly drains ready work, advances virtual time by a small
// seed-driven amount after each poll, and — once the queue empties — asks
// the configured [Clock] to jump to the next scheduled event.
//
// Because the only two ways time advances (the post-poll jitter and the
// jump-to-next-event) and the only way ready work is chosen are both
// driven by a single seeded [RNG], two runs constructed with [New] given
// the same seed and the same root program produce byte-identical task
// interleavings and virtual-time traces.
//
// # Node Lifecycle
//
// [Registry.CreateNode] allocates a node; [Registry.Pause],
// [Registry.Resume], [Registry.Kill], and [Registry.Restart] mutate its
// flags and, for Kill/Restart, replace its [NodeInfo] entirely so that
// stale in-flight work discovers a tombstoned `Killed` flag the next time
// it is dequeued, without requiring the registry to enumerate and cancel
// arbitrary in-flight goroutines synchronously.
//
// # Thread Safety
//
// [BlockOn] must run on a single goroutine — it is the sole consumer of the
// ready queue. The waker path, [JoinHandle.Abort], and every [Registry]
// lifecycle method are safe to call from any goroutine at any time.
//
// # Usage
//
//	ex := detexec.New(42)
//	out, err := detexec.BlockOn(context.Background(), ex, func(tc *detexec.TaskContext) (int, error) {
//	    h := detexec.Spawn(tc, func(tc *detexec.TaskContext) (int, error) {
//	        return 1, nil
//	    })
//	    return h.Join(tc)
//	})
package detexec
