package detexec

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
)

// NodeInfo is a node's identity plus its mutable lifecycle flags. It is
// immutable in its identity fields (ID, Name, Cores) for its whole
// lifetime; Paused and Killed are the only fields that change in place.
//
// Kill does not mutate a NodeInfo's Killed flag back to false: instead the
// registry builds a fresh NodeInfo and marks this one's Killed permanently.
// Every [TaskInfo] spawned before the kill keeps pointing at this exact
// value, so their next dequeue observes Killed=true and is discarded — the
// tombstone the node lifecycle design rests on.
type NodeInfo struct {
	ID    NodeID
	Name  string
	Cores int

	paused atomic.Bool
	killed atomic.Bool
}

// Paused reports whether this NodeInfo is currently paused.
func (n *NodeInfo) Paused() bool { return n.paused.Load() }

// Killed reports whether this NodeInfo has been superseded by a kill. Once
// true, it never becomes false again.
func (n *NodeInfo) Killed() bool { return n.killed.Load() }

// Node is the registry's entry for one NodeID: the current NodeInfo, the
// waiting list accumulated while paused, and the init function that makes
// restart meaningful.
type Node struct {
	id      NodeID
	info    atomic.Pointer[NodeInfo]
	init    func(h *NodeHandle)
	mu      sync.Mutex
	waiting []readyEntry
	// dead tracks kill idempotency independent of the current NodeInfo's
	// own Killed flag: restart installs a live (non-killed) NodeInfo, so
	// the NodeInfo alone can't tell a second Kill call from a first. It
	// only feeds Kill's returned bool — it never gates whether the current
	// NodeInfo gets replaced and tombstoned, which happens on every call.
	dead bool
}

// NodeHandle is a capability bound to one point-in-time NodeInfo, returned
// by [Registry.CreateNode] and [Registry.GetNode]. A task spawned through
// [SpawnOn] on this handle is pinned to exactly this NodeInfo, even if the
// node is later killed.
type NodeHandle struct {
	exec *Executor
	info *NodeInfo
}

// ID returns the node's [NodeID].
func (h *NodeHandle) ID() NodeID { return h.info.ID }

// Info returns the [NodeInfo] this handle is bound to.
func (h *NodeHandle) Info() *NodeInfo { return h.info }

// NodeBuilder configures a node created with [Registry.CreateNode]. All
// fields are optional; see field docs for defaults.
type NodeBuilder struct {
	// Name defaults to "node-<id>".
	Name string
	// Cores defaults to 1.
	Cores int
	// Init, if non-nil, is invoked immediately against the new node's
	// handle, and again on every [Registry.Restart]. A node with no Init is
	// killable but not meaningfully restartable.
	Init func(h *NodeHandle)
}

// Registry owns every node but the implicit main node's identity (which it
// also tracks, pre-created, under [MainNodeID]) and enforces the
// pause/resume/kill/restart state machine described on each method.
type Registry struct {
	exec  *Executor
	mu    sync.Mutex
	ids   idCounter
	nodes map[NodeID]*Node
}

// newRegistry constructs a [Registry] with the main node pre-installed.
func newRegistry(exec *Executor) *Registry {
	r := &Registry{
		exec:  exec,
		nodes: make(map[NodeID]*Node),
	}
	r.ids.v.Store(1) // NodeIDs for non-main nodes start at 1
	main := &Node{id: MainNodeID}
	main.info.Store(&NodeInfo{ID: MainNodeID, Name: "main", Cores: 1})
	r.nodes[MainNodeID] = main
	return r
}

func (r *Registry) lookup(id NodeID) (*Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

func (r *Registry) newSpan(info *NodeInfo) {
	_, span := r.exec.tracer.Start(context.Background(), "node")
	span.SetAttributes(
		attribute.Int64("node.id", int64(info.ID)),
		attribute.String("node.name", info.Name),
		attribute.Int("node.cores", info.Cores),
	)
	span.End() // node spans are point-in-time markers, not long-lived scopes
}

// CreateNode allocates a fresh [NodeID], installs the node, and — if b.Init
// is set — invokes it immediately to seed the node's bootstrap task(s).
// IDs are allocated from 1, so CreateNode never allocates [MainNodeID].
func (r *Registry) CreateNode(b NodeBuilder) (*NodeHandle, error) {
	cores := b.Cores
	if cores <= 0 {
		cores = 1
	}

	r.mu.Lock()
	id := NodeID(r.ids.next())
	name := b.Name
	if name == "" {
		name = id.String()
	}
	info := &NodeInfo{ID: id, Name: name, Cores: cores}
	n := &Node{id: id, init: b.Init}
	n.info.Store(info)
	r.nodes[id] = n
	r.mu.Unlock()

	r.newSpan(info)
	logNodeEvent(r.exec.logger, "create", id, name)

	h := &NodeHandle{exec: r.exec, info: info}
	if b.Init != nil {
		b.Init(h)
	}
	return h, nil
}

// Pause sets paused=true on id's current NodeInfo. Idempotent; reports
// whether the flag actually transitioned. In-flight polls are not
// preempted — pausing takes effect the next time the node's tasks return
// to the ready queue.
func (r *Registry) Pause(id NodeID) (bool, error) {
	n, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	info := n.info.Load()
	changed := info.paused.CompareAndSwap(false, true)
	if changed {
		logNodeEvent(r.exec.logger, "pause", id, info.Name)
	}
	return changed, nil
}

// Resume clears paused and drains the node's waiting list onto the ready
// queue, preserving relative accumulation order. Idempotent; reports
// whether the flag actually transitioned.
func (r *Registry) Resume(id NodeID) (bool, error) {
	n, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	info := n.info.Load()
	changed := info.paused.CompareAndSwap(true, false)
	if changed {
		n.mu.Lock()
		drained := n.waiting
		n.waiting = nil
		n.mu.Unlock()
		for _, e := range drained {
			r.exec.queue.send(e)
		}
		logNodeEvent(r.exec.logger, "resume", id, info.Name)
	}
	return changed, nil
}

// Kill clears id's waiting list and replaces its current NodeInfo with a
// fresh one (paused=false, killed=false), tombstoning the old one. Every
// runnable already holding the old NodeInfo is discarded on its next
// dequeue. Rejects killing the main node.
//
// The replace-and-tombstone happens on every call, not just the first: a
// node that is already dead may still have a live NodeInfo in circulation
// (restart installs one), and that NodeInfo needs tombstoning too. The
// returned bool is purely a "did this call change anything new" signal for
// idempotency-aware callers — it does not gate the work itself.
func (r *Registry) Kill(id NodeID) (bool, error) {
	if id == MainNodeID {
		return false, ErrMainNodeReserved
	}
	n, err := r.lookup(id)
	if err != nil {
		return false, err
	}

	n.mu.Lock()
	wasDead := n.dead
	n.dead = true
	n.waiting = nil
	n.mu.Unlock()

	old := n.info.Load()
	fresh := &NodeInfo{ID: id, Name: old.Name, Cores: old.Cores}
	n.info.Store(fresh)
	old.killed.Store(true)

	r.newSpan(fresh)
	logNodeEvent(r.exec.logger, "kill", id, old.Name)
	return !wasDead, nil
}

// Restart is kill(id) followed by invoking the node's stored init function,
// if any, against a handle bound to the fresh NodeInfo. A node with no
// init function is simply left dead: alive (not tombstoned) but inert.
func (r *Registry) Restart(id NodeID) error {
	if id == MainNodeID {
		return ErrMainNodeReserved
	}
	n, err := r.lookup(id)
	if err != nil {
		return err
	}
	if _, err := r.Kill(id); err != nil {
		return err
	}
	n.mu.Lock()
	n.dead = false
	n.mu.Unlock()

	logNodeEvent(r.exec.logger, "restart", id, n.info.Load().Name)
	if n.init != nil {
		n.init(&NodeHandle{exec: r.exec, info: n.info.Load()})
	}
	return nil
}

// GetNode returns a handle bound to id's current NodeInfo.
func (r *Registry) GetNode(id NodeID) (*NodeHandle, error) {
	n, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return &NodeHandle{exec: r.exec, info: n.info.Load()}, nil
}

// parkOrRoute is the drain-phase routing decision for one dequeued entry:
// discard it if its node is killed, park it in the node's waiting list if
// paused, or report it runnable.
func (r *Registry) parkOrRoute(e readyEntry) (runnable bool) {
	info := e.info.node
	if info.killed.Load() {
		return false
	}
	if info.paused.Load() {
		n, err := r.lookup(info.ID)
		if err == nil {
			n.mu.Lock()
			n.waiting = append(n.waiting, e)
			n.mu.Unlock()
		}
		return false
	}
	return true
}
