package detexec

import "sync/atomic"

// currentNode tracks the NodeInfo of whichever task is actively being
// polled. Only one task goroutine ever runs user code at a time — the
// channel baton in [taskState.poll] guarantees the executor's own
// goroutine is blocked whenever a task's is runnable — so a single shared
// pointer is sufficient to play the role of the thread-local "current
// task" slot described for syscall shims, without needing a real
// goroutine-keyed lookup table.
var currentNode atomic.Pointer[NodeInfo]
