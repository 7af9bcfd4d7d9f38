package graph

import (
	"github.com/c360/nodeflow/node"
)

// IsDirty reports whether a node needs to run in the next cycle.
func (g *Graph) IsDirty(id NodeID) bool {
	n, ok := g.nodes[id]
	return ok && n.dirty
}

// MarkDirty flags a single node for execution.
func (g *Graph) MarkDirty(id NodeID) {
	if n, ok := g.nodes[id]; ok {
		n.dirty = true
	}
}

// MarkClean clears the dirty flag of a node.
func (g *Graph) MarkClean(id NodeID) {
	if n, ok := g.nodes[id]; ok {
		n.dirty = false
	}
}

// MarkAllDirty flags every node.
func (g *Graph) MarkAllDirty() {
	for _, n := range g.nodes {
		n.dirty = true
	}
}

func (g *Graph) markSubtreeDirty(id NodeID) {
	for _, nid := range g.Downstream(id) {
		g.nodes[nid].dirty = true
	}
}

// DirtyNodes returns the dirty nodes in insertion order.
func (g *Graph) DirtyNodes() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if g.nodes[id].dirty {
			out = append(out, id)
		}
	}
	return out
}

// RequestRestart asks the engine to restart a stateful node before its next
// execution. The node and its downstream are marked dirty. Nodes without
// FlagHasState have nothing to rewind; the call is a no-op for them.
func (g *Graph) RequestRestart(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return g.invalidNode("RequestRestart", id)
	}
	if !n.config.Flags.Has(node.FlagHasState) {
		return nil
	}
	n.restart = true
	g.markSubtreeDirty(id)
	return nil
}

// RequestRestartAll requests a restart of every stateful node.
func (g *Graph) RequestRestartAll() {
	for _, id := range g.StateNodes() {
		_ = g.RequestRestart(id)
	}
}

// RearmRestart puts back a restart request after a failed attempt. Only the
// node itself is marked dirty, so it is revisited when clean nodes are
// skipped; its outputs did not change and its consumers are left alone.
func (g *Graph) RearmRestart(id NodeID) {
	n, ok := g.nodes[id]
	if !ok || !n.config.Flags.Has(node.FlagHasState) {
		return
	}
	n.restart = true
	n.dirty = true
}

// TakeRestart reports and clears a pending restart request.
func (g *Graph) TakeRestart(id NodeID) bool {
	n, ok := g.nodes[id]
	if !ok || !n.restart {
		return false
	}
	n.restart = false
	return true
}

// StateNodes returns the nodes flagged FlagHasState, in insertion order.
func (g *Graph) StateNodes() []NodeID {
	return g.withFlag(node.FlagHasState)
}

// AutoTagNodes returns the nodes flagged FlagAutoTag, in insertion order.
func (g *Graph) AutoTagNodes() []NodeID {
	return g.withFlag(node.FlagAutoTag)
}

// TagAutoNodes marks every auto-tagged node and its downstream dirty.
func (g *Graph) TagAutoNodes() {
	for _, id := range g.AutoTagNodes() {
		g.markSubtreeDirty(id)
	}
}

// IsStateless reports whether no node keeps state across cycles.
func (g *Graph) IsStateless() bool {
	return len(g.StateNodes()) == 0
}

func (g *Graph) withFlag(f node.Flags) []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if g.nodes[id].config.Flags.Has(f) {
			out = append(out, id)
		}
	}
	return out
}
