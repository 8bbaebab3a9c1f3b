package detexec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sequenceRNG returns a scripted sequence of IntN results, for tests that
// need to pin exactly which index tryRecvRandom picks.
type sequenceRNG struct {
	values []int
	i      int
}

func (s *sequenceRNG) IntN(n int) int {
	v := s.values[s.i%len(s.values)]
	s.i++
	if v >= n {
		v = n - 1
	}
	return v
}

func TestReadyQueueEmptyRecv(t *testing.T) {
	q := newReadyQueue()
	_, ok := q.tryRecvRandom(NewRNG(1))
	require.False(t, ok)
}

func TestReadyQueueSendRecvRoundTrip(t *testing.T) {
	q := newReadyQueue()
	info := &TaskInfo{ID: 1}
	q.send(readyEntry{info: info})

	entry, ok := q.tryRecvRandom(NewRNG(1))
	require.True(t, ok)
	require.Same(t, info, entry.info)
	require.Equal(t, 0, q.len())
}

func TestReadyQueueRandomSelectionDoesNotDropEntries(t *testing.T) {
	q := newReadyQueue()
	ids := make(map[TaskID]bool)
	for i := 0; i < 10; i++ {
		id := TaskID(i)
		ids[id] = true
		q.send(readyEntry{info: &TaskInfo{ID: id}})
	}

	rng := &sequenceRNG{values: []int{3, 0, 4, 1, 2, 0, 0, 0, 0, 0}}
	seen := make(map[TaskID]bool)
	for q.len() > 0 {
		entry, ok := q.tryRecvRandom(rng)
		require.True(t, ok)
		require.False(t, seen[entry.info.ID], "entry dequeued twice: %d", entry.info.ID)
		seen[entry.info.ID] = true
	}
	require.Equal(t, ids, seen)
}

func TestReadyQueueRemoveKeepsSurvivor(t *testing.T) {
	q := newReadyQueue()
	a := &TaskInfo{ID: 1}
	b := &TaskInfo{ID: 2}
	q.send(readyEntry{info: a})
	q.send(readyEntry{info: b})

	// index 0 selected: a removed, b must still be retrievable afterward.
	entry, ok := q.tryRecvRandom(&sequenceRNG{values: []int{0}})
	require.True(t, ok)
	require.Same(t, a, entry.info)

	entry, ok = q.tryRecvRandom(&sequenceRNG{values: []int{0}})
	require.True(t, ok)
	require.Same(t, b, entry.info)

	_, ok = q.tryRecvRandom(&sequenceRNG{values: []int{0}})
	require.False(t, ok)
}

func TestReadyQueueRemovalPreservesSurvivorOrder(t *testing.T) {
	// [A,B,C,D], remove index 0 (A): a swap-remove would splice the last
	// entry (D) into A's slot, reordering B and C relative to D. A stable
	// removal must leave the survivors as [B,C,D].
	q := newReadyQueue()
	a := &TaskInfo{ID: 1}
	b := &TaskInfo{ID: 2}
	c := &TaskInfo{ID: 3}
	d := &TaskInfo{ID: 4}
	q.send(readyEntry{info: a})
	q.send(readyEntry{info: b})
	q.send(readyEntry{info: c})
	q.send(readyEntry{info: d})

	entry, ok := q.tryRecvRandom(&sequenceRNG{values: []int{0}})
	require.True(t, ok)
	require.Same(t, a, entry.info)
	require.Equal(t, []*TaskInfo{b, c, d}, infos(q.entries))
}

func infos(entries []readyEntry) []*TaskInfo {
	out := make([]*TaskInfo, len(entries))
	for i, e := range entries {
		out[i] = e.info
	}
	return out
}
