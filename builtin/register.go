package builtin

import (
	"fmt"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/registry"
)

// Type names of the built-in nodes.
const (
	TypeTestPattern   = "Sources/Test pattern"
	TypeImageFromFile = "Sources/Image from file"
	TypeImageSequence = "Sources/Image sequence"
	TypeGray          = "Conversion/Gray"
	TypeThreshold     = "Filters/Threshold"
	TypeCorners       = "Features/Corners"
	TypeRetainBest    = "Features/Retain best"
	TypeStatistics    = "Analysis/Statistics"
	TypeImageWriter   = "Sinks/Image writer"
)

var types = []struct {
	name    string
	factory node.Factory
}{
	{TypeTestPattern, node.New(newTestPattern)},
	{TypeImageFromFile, node.New(newImageFromFile)},
	{TypeImageSequence, node.New(newImageSequence)},
	{TypeGray, node.New(newGray)},
	{TypeThreshold, node.New(newThreshold)},
	{TypeCorners, node.New(newCorners)},
	{TypeRetainBest, node.New(newRetainBest)},
	{TypeStatistics, node.New(newStatistics)},
	{TypeImageWriter, node.New(newImageWriter)},
}

// Register adds the built-in node types. It is meant for
// registry.WithBootstrap.
func Register(r registry.Registrar) error {
	for _, t := range types {
		if r.Register(t.name, t.factory) == registry.InvalidTypeID {
			return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, t.name),
				"builtin", "Register", "type registration")
		}
	}
	return nil
}

// Names returns the built-in type names in registration order.
func Names() []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.name
	}
	return out
}
