package pipeline

import (
	"fmt"
	"slices"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/graph"
)

// Build adds the nodes and links of d to g. Nodes are added in definition
// order, then properties are applied, then links are connected. Build stops
// at the first failure; nodes added before it stay in the graph.
func (d *Definition) Build(g *graph.Graph) (map[string]graph.NodeID, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	ids := make(map[string]graph.NodeID, len(d.Nodes))
	for _, n := range d.Nodes {
		id, err := g.AddNodeByName(n.Type, n.Name)
		if err != nil {
			return ids, errors.Wrap(err, "Definition", "Build", fmt.Sprintf("add node %q", n.Name))
		}
		ids[n.Name] = id
	}

	for _, n := range d.Nodes {
		if err := applyProperties(g, n); err != nil {
			return ids, err
		}
	}

	for i, l := range d.Links {
		from, err := g.Resolve("o://" + l.From)
		if err != nil {
			return ids, errors.Wrap(err, "Definition", "Build", fmt.Sprintf("link %d source", i))
		}
		to, err := g.Resolve("i://" + l.To)
		if err != nil {
			return ids, errors.Wrap(err, "Definition", "Build", fmt.Sprintf("link %d target", i))
		}
		if err := g.Connect(from.Address(), to.Address()); err != nil {
			return ids, errors.Wrap(err, "Definition", "Build", fmt.Sprintf("connect %s -> %s", l.From, l.To))
		}
	}
	return ids, nil
}

// applyProperties sets properties in sorted label order so failures are
// reported deterministically.
func applyProperties(g *graph.Graph, n NodeDef) error {
	labels := make([]string, 0, len(n.Properties))
	for label := range n.Properties {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	for _, label := range labels {
		target, err := g.Resolve("p://" + n.Name + "/" + label)
		if err != nil {
			return errors.Wrap(err, "Definition", "Build", fmt.Sprintf("property %s.%s", n.Name, label))
		}

		node, _ := g.Node(target.Node)
		desc := node.Config().PropertyDescriptors()[target.Index]
		v, err := desc.Parse(n.Properties[label])
		if err != nil {
			return errors.Wrap(err, "Definition", "Build", fmt.Sprintf("property %s.%s", n.Name, label))
		}
		if err := g.SetProperty(target.Node, target.Index, v); err != nil {
			return errors.Wrap(err, "Definition", "Build", fmt.Sprintf("property %s.%s", n.Name, label))
		}
	}
	return nil
}
