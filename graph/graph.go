package graph

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
	"github.com/c360/nodeflow/registry"
)

// NodeID identifies a node within one graph. IDs of removed nodes are reused.
type NodeID int

// InvalidNodeID is never assigned to a node.
const InvalidNodeID NodeID = -1

// SocketAddress names one socket of one node.
type SocketAddress struct {
	Node   NodeID `json:"node"`
	Socket int    `json:"socket"`
}

func (a SocketAddress) String() string {
	return fmt.Sprintf("%d:%d", a.Node, a.Socket)
}

// Link connects an output socket to an input socket.
type Link struct {
	From SocketAddress `json:"from"`
	To   SocketAddress `json:"to"`
}

// Node is a node instance placed in a graph.
type Node struct {
	id       NodeID
	serial   uint64
	name     string
	typeID   registry.TypeID
	typeName string
	impl     node.Type
	config   node.Config

	dirty   bool
	restart bool
}

// ID returns the node's graph ID.
func (n *Node) ID() NodeID { return n.id }

// Serial is unique for the lifetime of the graph, unlike ID which is reused
// after removal. It is suitable as a key for per-node runtime state.
func (n *Node) Serial() uint64 { return n.serial }

// Name returns the instance name.
func (n *Node) Name() string { return n.name }

// TypeID returns the registry type of the node.
func (n *Node) TypeID() registry.TypeID { return n.typeID }

// TypeName returns the registry type name.
func (n *Node) TypeName() string { return n.typeName }

// Type returns the node implementation.
func (n *Node) Type() node.Type { return n.impl }

// Config returns the configuration captured when the node was created.
func (n *Node) Config() node.Config { return n.config }

// Flags returns the node's declared flags.
func (n *Node) Flags() node.Flags { return n.config.Flags }

// Graph holds node instances and the links between them. A Graph is not safe
// for concurrent use; callers serialize edits and execution.
type Graph struct {
	reg    *registry.Registry
	logger *slog.Logger

	nodes   map[NodeID]*Node
	order   []NodeID // insertion order
	free    []NodeID // released IDs, ascending
	nextID  NodeID
	serials uint64

	links   []Link
	inbound map[SocketAddress]SocketAddress // input -> output
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates an empty graph whose nodes are created from reg.
func New(reg *registry.Registry, opts ...Option) *Graph {
	g := &Graph{
		reg:     reg,
		logger:  slog.Default(),
		nodes:   make(map[NodeID]*Node),
		inbound: make(map[SocketAddress]SocketAddress),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the registry nodes are created from.
func (g *Graph) Registry() *registry.Registry {
	return g.reg
}

// AddNode creates an instance of typeID. An empty name picks the type's
// default instance name, suffixed with a number when already used. An
// explicit name that is taken is refused. The new node starts dirty.
func (g *Graph) AddNode(typeID registry.TypeID, name string) (NodeID, error) {
	if name != "" {
		if err := g.checkName(name, InvalidNodeID); err != nil {
			return InvalidNodeID, errors.WrapInvalid(err, "Graph", "AddNode", "name check")
		}
	}

	impl, err := g.reg.Create(typeID)
	if err != nil {
		return InvalidNodeID, errors.Wrap(err, "Graph", "AddNode", "node creation")
	}

	typeName := g.reg.TypeName(typeID)
	if name == "" {
		name = g.uniqueName(registry.DefaultNodeName(typeName))
	}

	id := g.allocID()
	g.serials++
	n := &Node{
		id:       id,
		serial:   g.serials,
		name:     name,
		typeID:   typeID,
		typeName: typeName,
		impl:     impl,
		config:   impl.Config(),
		dirty:    true,
	}
	g.nodes[id] = n
	g.order = append(g.order, id)

	g.logger.Debug("node added", "node", name, "id", id, "type", typeName)
	return id, nil
}

// AddNodeByName is AddNode with the type looked up by name.
func (g *Graph) AddNodeByName(typeName, name string) (NodeID, error) {
	id := g.reg.TypeID(typeName)
	if id == registry.InvalidTypeID {
		return InvalidNodeID, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnknownType, typeName),
			"Graph", "AddNodeByName", "type lookup")
	}
	return g.AddNode(id, name)
}

func (g *Graph) allocID() NodeID {
	if len(g.free) > 0 {
		id := g.free[0]
		g.free = g.free[1:]
		return id
	}
	id := g.nextID
	g.nextID++
	return id
}

func (g *Graph) releaseID(id NodeID) {
	i, _ := slices.BinarySearch(g.free, id)
	g.free = slices.Insert(g.free, i, id)
}

func (g *Graph) checkName(name string, self NodeID) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: node name %q", errors.ErrInvalidNode, name)
	}
	if id, ok := g.ResolveNode(name); ok && id != self {
		return fmt.Errorf("%w: %s", errors.ErrNameTaken, name)
	}
	return nil
}

func (g *Graph) uniqueName(base string) string {
	if base == "" {
		base = "Node"
	}
	if _, taken := g.ResolveNode(base); !taken {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if _, taken := g.ResolveNode(candidate); !taken {
			return candidate
		}
	}
}

// RemoveNode deletes a node and every link touching it. Nodes that consumed
// its outputs are marked dirty along with everything downstream of them.
func (g *Graph) RemoveNode(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return g.invalidNode("RemoveNode", id)
	}

	var consumers []NodeID
	kept := g.links[:0]
	for _, l := range g.links {
		switch {
		case l.From.Node == id:
			delete(g.inbound, l.To)
			if l.To.Node != id {
				consumers = append(consumers, l.To.Node)
			}
		case l.To.Node == id:
			delete(g.inbound, l.To)
		default:
			kept = append(kept, l)
		}
	}
	g.links = kept

	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(x NodeID) bool { return x == id })
	g.releaseID(id)

	for _, c := range consumers {
		g.markSubtreeDirty(c)
	}

	g.logger.Debug("node removed", "node", n.name, "id", id)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes iterates nodes in insertion order.
func (g *Graph) Nodes() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		for _, id := range slices.Clone(g.order) {
			n, ok := g.nodes[id]
			if !ok {
				continue
			}
			if !yield(id, n) {
				return
			}
		}
	}
}

// Links iterates links in creation order.
func (g *Graph) Links() iter.Seq[Link] {
	return func(yield func(Link) bool) {
		for _, l := range slices.Clone(g.links) {
			if !yield(l) {
				return
			}
		}
	}
}

// NumLinks returns the number of links.
func (g *Graph) NumLinks() int {
	return len(g.links)
}

// ResolveNode finds a node by instance name.
func (g *Graph) ResolveNode(name string) (NodeID, bool) {
	for _, id := range g.order {
		if g.nodes[id].name == name {
			return id, true
		}
	}
	return InvalidNodeID, false
}

// NodeName returns the instance name, or "" for unknown IDs.
func (g *Graph) NodeName(id NodeID) string {
	if n, ok := g.nodes[id]; ok {
		return n.name
	}
	return ""
}

// SetNodeName renames a node. Names must be unique and may not contain '/'.
func (g *Graph) SetNodeName(id NodeID, name string) error {
	n, ok := g.nodes[id]
	if !ok {
		return g.invalidNode("SetNodeName", id)
	}
	if err := g.checkName(name, id); err != nil {
		return errors.WrapInvalid(err, "Graph", "SetNodeName", "name check")
	}
	n.name = name
	return nil
}

// SetProperty changes a property of a node. On success the node and
// everything downstream of it are marked dirty.
func (g *Graph) SetProperty(id NodeID, propID int, v property.Value) error {
	n, ok := g.nodes[id]
	if !ok {
		return g.invalidNode("SetProperty", id)
	}
	if err := n.impl.SetProperty(propID, v); err != nil {
		return errors.Wrap(err, "Graph", "SetProperty",
			fmt.Sprintf("set property %d on %s", propID, n.name))
	}
	g.markSubtreeDirty(id)
	return nil
}

// Property reads a property of a node.
func (g *Graph) Property(id NodeID, propID int) (property.Value, error) {
	n, ok := g.nodes[id]
	if !ok {
		return property.Value{}, g.invalidNode("Property", id)
	}
	return n.impl.Property(propID)
}

func (g *Graph) invalidNode(op string, id NodeID) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: id %d", errors.ErrInvalidNode, id),
		"Graph", op, "node lookup")
}

// socketKind returns the kind of an output (out=true) or input socket.
func (g *Graph) socketKind(addr SocketAddress, out bool) (flowdata.Kind, error) {
	n, ok := g.nodes[addr.Node]
	if !ok {
		return flowdata.KindInvalid, fmt.Errorf("%w: id %d", errors.ErrInvalidNode, addr.Node)
	}
	sockets := n.config.InputSockets()
	dir := "input"
	if out {
		sockets = n.config.OutputSockets()
		dir = "output"
	}
	if addr.Socket < 0 || addr.Socket >= len(sockets) {
		return flowdata.KindInvalid, fmt.Errorf("%w: %s %d of %s", errors.ErrInvalidSocket, dir, addr.Socket, n.name)
	}
	return sockets[addr.Socket].Kind, nil
}
