package graph

import (
	"fmt"
	"strings"

	"github.com/c360/nodeflow/errors"
)

// TargetKind says what a resolved URI points at.
type TargetKind int

const (
	// TargetInput is an input socket ("i://").
	TargetInput TargetKind = iota
	// TargetOutput is an output socket ("o://").
	TargetOutput
	// TargetProperty is a node property ("p://").
	TargetProperty
)

var schemes = map[string]TargetKind{
	"i": TargetInput,
	"o": TargetOutput,
	"p": TargetProperty,
}

// Target is the result of resolving a URI.
type Target struct {
	Kind  TargetKind
	Node  NodeID
	Index int
}

// Address returns the socket address of an input or output target.
func (t Target) Address() SocketAddress {
	return SocketAddress{Node: t.Node, Socket: t.Index}
}

// Resolve maps "i://node/socket", "o://node/socket" or "p://node/property"
// to a target. Sockets match by name or label, properties by label; both
// ignore case.
func (g *Graph) Resolve(uri string) (Target, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	kind, known := schemes[scheme]
	if !ok || !known {
		return Target{}, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported uri %q", errors.ErrInvalidSocket, uri),
			"Graph", "Resolve", "scheme check")
	}

	nodeName, member, ok := strings.Cut(rest, "/")
	if !ok || nodeName == "" || member == "" {
		return Target{}, errors.WrapInvalid(
			fmt.Errorf("%w: malformed uri %q", errors.ErrInvalidSocket, uri),
			"Graph", "Resolve", "path split")
	}

	id, found := g.ResolveNode(nodeName)
	if !found {
		return Target{}, errors.WrapInvalid(
			fmt.Errorf("%w: no node named %q", errors.ErrInvalidNode, nodeName),
			"Graph", "Resolve", "node lookup")
	}
	cfg := g.nodes[id].config

	index := -1
	switch kind {
	case TargetInput:
		index = cfg.InputIndex(member)
	case TargetOutput:
		index = cfg.OutputIndex(member)
	case TargetProperty:
		for i, d := range cfg.PropertyDescriptors() {
			if strings.EqualFold(d.Label, member) {
				index = i
				break
			}
		}
	}
	if index < 0 {
		sentinel := errors.ErrInvalidSocket
		if kind == TargetProperty {
			sentinel = errors.ErrInvalidProperty
		}
		return Target{}, errors.WrapInvalid(
			fmt.Errorf("%w: %s has no %q", sentinel, nodeName, member),
			"Graph", "Resolve", "member lookup")
	}

	return Target{Kind: kind, Node: id, Index: index}, nil
}
