package detexec

import "sync"

// readyEntry is one pending poll: a runnable (the task's own poll method)
// paired with the TaskInfo needed to route it past paused/killed nodes
// without running it.
type readyEntry struct {
	poll func() bool
	info *TaskInfo
}

// ReadyQueue is the executor's single-consumer, multi-producer channel of
// [readyEntry] values. Unlike a chunked linked-list ingress optimized for
// high-throughput FIFO batching, dequeue order here is random by design —
// uniform selection among whatever is currently buffered, not FIFO — so the
// backing store is a plain mutex-guarded slice.
type ReadyQueue struct {
	mu      sync.Mutex
	entries []readyEntry
}

// newReadyQueue returns an empty [ReadyQueue].
func newReadyQueue() *ReadyQueue {
	return &ReadyQueue{}
}

// send enqueues entry. Thread-safe, never blocks the sender — wakers may
// call this from any goroutine, including a timer callback running
// concurrently with the executor's own drain loop.
func (q *ReadyQueue) send(entry readyEntry) {
	q.mu.Lock()
	q.entries = append(q.entries, entry)
	q.mu.Unlock()
}

// tryRecvRandom picks a uniformly random buffered entry, removes it, and
// returns it. Entries not selected keep their relative order among
// themselves — removal shifts the tail down rather than swapping the last
// entry into the removed slot, so the only thing random here is which
// entry is picked, never the order of what is left behind. Returns
// ok=false if the queue is empty.
func (q *ReadyQueue) tryRecvRandom(rng RNG) (entry readyEntry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	if n == 0 {
		return readyEntry{}, false
	}
	i := rng.IntN(n)
	entry = q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return entry, true
}

// len reports the number of currently buffered entries. Used only by
// tests; the drain loop itself relies on tryRecvRandom's ok
// return instead of checking length first, to avoid a lock/unlock round
// trip that would race with a concurrent send.
func (q *ReadyQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
