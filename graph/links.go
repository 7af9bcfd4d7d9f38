package graph

import (
	"fmt"
	"slices"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/flowdata"
)

// Connect links an output socket to an input socket. It is refused, leaving
// the graph unchanged, when either endpoint does not exist, the input is
// already connected, the kinds are incompatible or the link would close a
// cycle. On success the destination and everything downstream of it are
// marked dirty.
func (g *Graph) Connect(from, to SocketAddress) error {
	outKind, err := g.socketKind(from, true)
	if err != nil {
		return errors.WrapInvalid(err, "Graph", "Connect", "output socket lookup")
	}
	inKind, err := g.socketKind(to, false)
	if err != nil {
		return errors.WrapInvalid(err, "Graph", "Connect", "input socket lookup")
	}

	if prev, connected := g.inbound[to]; connected {
		return errors.WrapInvalid(
			fmt.Errorf("%w: input %s already fed by %s", errors.ErrAlreadyConnected, to, prev),
			"Graph", "Connect", "input check")
	}
	if !flowdata.Compatible(outKind, inKind) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s to %s", errors.ErrIncompatibleKinds, outKind, inKind),
			"Graph", "Connect", "kind check")
	}
	if from.Node == to.Node || g.reaches(to.Node, from.Node) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s -> %s", errors.ErrCycle, g.NodeName(from.Node), g.NodeName(to.Node)),
			"Graph", "Connect", "cycle check")
	}

	g.links = append(g.links, Link{From: from, To: to})
	g.inbound[to] = from
	g.markSubtreeDirty(to.Node)

	g.logger.Debug("nodes connected",
		"from", g.NodeName(from.Node), "output", from.Socket,
		"to", g.NodeName(to.Node), "input", to.Socket)
	return nil
}

// Disconnect removes a link. The former destination and everything
// downstream of it are marked dirty.
func (g *Graph) Disconnect(from, to SocketAddress) error {
	i := slices.Index(g.links, Link{From: from, To: to})
	if i < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s -> %s", errors.ErrLinkNotFound, from, to),
			"Graph", "Disconnect", "link lookup")
	}

	g.links = slices.Delete(g.links, i, i+1)
	delete(g.inbound, to)
	g.markSubtreeDirty(to.Node)
	return nil
}

// ConnectedFrom returns the output feeding an input.
func (g *Graph) ConnectedFrom(to SocketAddress) (SocketAddress, bool) {
	from, ok := g.inbound[to]
	return from, ok
}

// IsInputConnected reports whether an input has an incoming link.
func (g *Graph) IsInputConnected(to SocketAddress) bool {
	_, ok := g.inbound[to]
	return ok
}

// IsOutputConnected reports whether an output has at least one outgoing link.
func (g *Graph) IsOutputConnected(from SocketAddress) bool {
	return slices.ContainsFunc(g.links, func(l Link) bool { return l.From == from })
}

// Successors returns the distinct direct consumers of id in link order.
func (g *Graph) Successors(id NodeID) []NodeID {
	var out []NodeID
	for _, l := range g.links {
		if l.From.Node == id && !slices.Contains(out, l.To.Node) {
			out = append(out, l.To.Node)
		}
	}
	return out
}

// reaches reports whether target is downstream of start.
func (g *Graph) reaches(start, target NodeID) bool {
	seen := map[NodeID]bool{start: true}
	stack := []NodeID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, next := range g.Successors(cur) {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Downstream returns id and every node reachable from it, in insertion order.
func (g *Graph) Downstream(id NodeID) []NodeID {
	if _, ok := g.nodes[id]; !ok {
		return nil
	}
	seen := map[NodeID]bool{id: true}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.Successors(cur) {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}

	out := make([]NodeID, 0, len(seen))
	for _, nid := range g.order {
		if seen[nid] {
			out = append(out, nid)
		}
	}
	return out
}

// ExecutionOrder returns every node in dependency order. Among nodes whose
// inputs are all satisfied, the one added earliest comes first, so the order
// is stable across calls. A cycle yields ErrCycle.
func (g *Graph) ExecutionOrder() ([]NodeID, error) {
	position := make(map[NodeID]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	indegree := make(map[NodeID]int, len(g.order))
	for _, l := range g.links {
		indegree[l.To.Node]++
	}

	var ready []NodeID
	push := func(id NodeID) {
		i, _ := slices.BinarySearchFunc(ready, id, func(a, b NodeID) int {
			return position[a] - position[b]
		})
		ready = slices.Insert(ready, i, id)
	}
	for _, id := range g.order {
		if indegree[id] == 0 {
			push(id)
		}
	}

	order := make([]NodeID, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, l := range g.links {
			if l.From.Node != id {
				continue
			}
			indegree[l.To.Node]--
			if indegree[l.To.Node] == 0 {
				push(l.To.Node)
			}
		}
	}

	if len(order) != len(g.order) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %d of %d nodes ordered", errors.ErrCycle, len(order), len(g.order)),
			"Graph", "ExecutionOrder", "topological sort")
	}
	return order, nil
}
