package detexec

import (
	"fmt"
	"sync/atomic"
)

// NodeID is an opaque identifier for a [Node]. Zero is reserved for the
// implicit main node hosting the root computation passed to
// [BlockOn]. Every other NodeID is allocated from a
// per-[Registry] monotonically increasing counter starting at 1.
type NodeID uint64

// MainNodeID is the NodeID of the implicit node that hosts the root future
// given to [BlockOn]. It is pre-created and cannot be destroyed or
// created again via [Registry.CreateNode].
const MainNodeID NodeID = 0

func (id NodeID) String() string {
	if id == MainNodeID {
		return "node-main"
	}
	return fmt.Sprintf("node-%d", uint64(id))
}

// idCounter is a monotonically increasing allocator, scoped to a single
// owner (a [Registry] or an [Executor]) rather than the process.
//
// Go test binaries routinely construct many [Executor] values in one
// process; a process-wide counter would make TaskID/NodeID values depend on
// how many other executors ran earlier in the same binary, breaking
// reproducibility across test runs. Every [Executor] therefore starts its
// TaskID counter at 0 and every [Registry] starts its NodeID counter at 1,
// independent of prior executors.
type idCounter struct {
	v atomic.Uint64
}

func (c *idCounter) next() uint64 {
	return c.v.Add(1) - 1
}

// TaskID is an opaque identifier for a task, allocated from its owning
// [Executor]'s monotonic counter starting at 0. TaskIDs are unique for the
// lifetime of the [Executor] that issued them; they are never reused.
type TaskID uint64

