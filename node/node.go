package node

import (
	"fmt"
	"strings"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/property"
)

// Flags declare how the engine treats a node type.
type Flags uint32

const (
	// FlagHasState marks nodes that keep state across cycles and must be
	// restarted when the sequence is reset.
	FlagHasState Flags = 1 << iota
	// FlagAutoTag asks the engine to re-run the node every cycle and to attach
	// the measured execution time as the status tag.
	FlagAutoTag
	// FlagOverridesTimeComputation marks nodes that report their own elapsed
	// time through the status tag.
	FlagOverridesTimeComputation
)

// Has reports whether all bits of x are set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// String lists the set flags separated by '|'.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(FlagHasState) {
		parts = append(parts, "has_state")
	}
	if f.Has(FlagAutoTag) {
		parts = append(parts, "auto_tag")
	}
	if f.Has(FlagOverridesTimeComputation) {
		parts = append(parts, "overrides_time")
	}
	return strings.Join(parts, "|")
}

// SocketDescriptor declares one input or output socket.
type SocketDescriptor struct {
	Kind flowdata.Kind
	// Name is the stable identifier used in socket addresses.
	Name  string
	Label string
	Hint  string
}

// Config is what a node type declares about itself.
type Config struct {
	Inputs      []SocketDescriptor
	Outputs     []SocketDescriptor
	Properties  []property.Descriptor
	Description string
	Flags       Flags
	// Module names the shared compute module the node needs, if any.
	Module string
}

// InputSockets returns the inputs up to the first invalid entry.
func (c Config) InputSockets() []SocketDescriptor {
	return truncateSockets(c.Inputs)
}

// OutputSockets returns the outputs up to the first invalid entry.
func (c Config) OutputSockets() []SocketDescriptor {
	return truncateSockets(c.Outputs)
}

// PropertyDescriptors returns the properties up to the first unknown entry.
func (c Config) PropertyDescriptors() []property.Descriptor {
	for i, d := range c.Properties {
		if d.Kind == property.KindUnknown {
			return c.Properties[:i]
		}
	}
	return c.Properties
}

func truncateSockets(s []SocketDescriptor) []SocketDescriptor {
	for i, d := range s {
		if d.Kind == flowdata.KindInvalid {
			return s[:i]
		}
	}
	return s
}

// OutputIndex returns the index of the named output socket, or -1.
func (c Config) OutputIndex(name string) int {
	return socketIndex(c.OutputSockets(), name)
}

// InputIndex returns the index of the named input socket, or -1.
func (c Config) InputIndex(name string) int {
	return socketIndex(c.InputSockets(), name)
}

func socketIndex(sockets []SocketDescriptor, name string) int {
	for i, s := range sockets {
		if s.Name == name || strings.EqualFold(s.Label, name) {
			return i
		}
	}
	return -1
}

// SocketReader gives a node read access to its inputs for one cycle.
type SocketReader interface {
	// Read returns the value of input socket i. Unconnected inputs and inputs
	// whose producer has not written anything yet read as empty values.
	Read(i int) flowdata.Value
	NumInputs() int
}

// SocketWriter gives a node write access to its outputs for one cycle.
type SocketWriter interface {
	// Acquire returns output slot i, allocating it on first use within the
	// cycle. Outputs that are never acquired keep their previous value.
	Acquire(i int) *flowdata.Value
	NumOutputs() int
}

// Type is the contract every processing unit implements.
type Type interface {
	SetProperty(id int, v property.Value) error
	Property(id int) (property.Value, error)
	Config() Config
	Execute(r SocketReader, w SocketWriter) Status
}

// Restarter is implemented by stateful nodes that can rewind to the start of
// their sequence. Restart returns false when the node cannot be reset.
type Restarter interface {
	Restart() bool
}

// Initializer is implemented by nodes that need a one-off initialization
// before the first cycle of a run.
type Initializer interface {
	Initialize() bool
}

// Module is a shared compute resource, such as a GPU context, that several
// node types use.
type Module interface {
	Name() string
	EnsureInitialized() error
}

// ModuleConsumer is implemented by nodes that need a Module. The registry
// hands the module named in Config.Module to InitModule after construction.
type ModuleConsumer interface {
	InitModule(m Module) error
}

// Factory creates a new node instance.
type Factory func() (Type, error)

// New adapts a constructor that cannot fail into a Factory.
func New[T Type](ctor func() T) Factory {
	return func() (Type, error) {
		return ctor(), nil
	}
}

// SocketName derives a socket name from its label: lower case with spaces
// replaced by underscores.
func SocketName(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// Describe renders a short one-line summary of a config.
func Describe(c Config) string {
	return fmt.Sprintf("%d in, %d out, %d properties, flags=%s",
		len(c.InputSockets()), len(c.OutputSockets()), len(c.PropertyDescriptors()), c.Flags)
}
