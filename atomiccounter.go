package detexec

import "sync/atomic"

// atomicCounter is a small wrapper around atomic.Int64 used by [Metrics],
// kept as its own type so MetricsSnapshot's field names can stay exported
// while the live counters stay unexported.
type atomicCounter struct {
	v atomic.Int64
}

func (c *atomicCounter) add(delta int64) { c.v.Add(delta) }
func (c *atomicCounter) load() int64     { return c.v.Load() }
