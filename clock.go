package detexec

import (
	"container/heap"
	"sync"
	"time"
)

// Clock is the virtual time subsystem the executor drives. It is consumed,
// never owned: the executor only ever asks it to advance, either by a fixed
// delta (the per-poll CPU-work bump) or to the next scheduled event.
//
// ScheduleAfter is the registration half of "fires timer events" — without
// it a [Clock] implementation would have no way for [TaskContext.Sleep] to
// arm a wakeup, so it is part of the interface alongside the three
// operations named directly.
type Clock interface {
	// Advance moves elapsed time forward by d unconditionally.
	Advance(d time.Duration)
	// AdvanceToNextEvent advances elapsed time to the earliest pending
	// scheduled event and fires it, returning true. Returns false if there
	// is no pending event.
	AdvanceToNextEvent() bool
	// Elapsed returns the total virtual time advanced so far.
	Elapsed() time.Duration
	// ScheduleAfter arranges for fire to run once elapsed time reaches the
	// current Elapsed()+d.
	ScheduleAfter(d time.Duration, fire func())
}

// timerEntry is one scheduled event in the clock's timer heap.
type timerEntry struct {
	at   time.Duration
	seq  uint64 // tie-breaker: preserves registration order among equal `at`
	fire func()
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// VirtualClock is the default [Clock]: a pure in-memory timer heap with no
// relation to wall time whatsoever. Every [Executor] gets one unless
// [WithClock] overrides it.
type VirtualClock struct {
	mu      sync.Mutex
	elapsed time.Duration
	heap    timerHeap
	seq     uint64
}

// NewVirtualClock returns an empty [VirtualClock] starting at zero elapsed
// time.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

func (c *VirtualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.elapsed += d
	c.mu.Unlock()
}

func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *VirtualClock) ScheduleAfter(d time.Duration, fire func()) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	heap.Push(&c.heap, &timerEntry{at: c.elapsed + d, seq: c.seq, fire: fire})
}

// AdvanceToNextEvent pops every timer sharing the earliest `at` (there may
// be several ties from the same tick), advances elapsed time to that
// instant, and fires them. Firing happens outside the lock: callbacks
// routinely re-enter ScheduleAfter to arm the next tick of a periodic
// sleep loop.
//
// AdvanceToNextEvent has no notion of a [WithTimeLimit] ceiling: it always
// advances to whatever is pending, even past the limit. [BlockOn]
// checks elapsed time against the limit itself after each advance, the same
// two-step sequence (advance, then assert) the executor's underlying
// cooperative-scheduler lineage uses — keeping "no pending event" and
// "limit exceeded" as distinct, unambiguous conditions.
func (c *VirtualClock) AdvanceToNextEvent() bool {
	c.mu.Lock()
	if c.heap.Len() == 0 {
		c.mu.Unlock()
		return false
	}
	next := c.heap[0]
	var fires []func()
	at := next.at
	for c.heap.Len() > 0 && c.heap[0].at == at {
		e := heap.Pop(&c.heap).(*timerEntry)
		fires = append(fires, e.fire)
	}
	c.elapsed = at
	c.mu.Unlock()

	for _, fire := range fires {
		fire()
	}
	return true
}
