package node

import (
	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/property"
)

// Base implements the bookkeeping half of Type. Node implementations embed it,
// declare sockets and properties in their constructor and implement Execute.
//
//	func newThreshold() *threshold {
//		n := &threshold{level: 128}
//		n.AddInput("Source", flowdata.KindImageMono)
//		n.AddOutput("Output", flowdata.KindImageMono)
//		n.AddProperty(property.BindInt("Level", &n.level)).WithRange(0, 255)
//		n.SetDescription("Applies a fixed-level threshold.")
//		return n
//	}
type Base struct {
	inputs      []SocketDescriptor
	outputs     []SocketDescriptor
	props       property.Set
	description string
	flags       Flags
	module      string
}

// AddInput declares an input socket.
func (b *Base) AddInput(label string, kind flowdata.Kind) {
	b.inputs = append(b.inputs, SocketDescriptor{Kind: kind, Name: SocketName(label), Label: label})
}

// AddOutput declares an output socket.
func (b *Base) AddOutput(label string, kind flowdata.Kind) {
	b.outputs = append(b.outputs, SocketDescriptor{Kind: kind, Name: SocketName(label), Label: label})
}

// AddProperty declares a property. Its ID is the number of properties added
// before it.
func (b *Base) AddProperty(p *property.Property) *property.Property {
	return b.props.Add(p)
}

// SetDescription sets the free-text description.
func (b *Base) SetDescription(d string) {
	b.description = d
}

// SetFlags sets the node flags.
func (b *Base) SetFlags(f Flags) {
	b.flags = f
}

// SetModule names the compute module the node requires.
func (b *Base) SetModule(name string) {
	b.module = name
}

// SetProperty implements Type.
func (b *Base) SetProperty(id int, v property.Value) error {
	return b.props.SetValue(id, v)
}

// Property implements Type.
func (b *Base) Property(id int) (property.Value, error) {
	return b.props.Value(id)
}

// Config implements Type.
func (b *Base) Config() Config {
	return Config{
		Inputs:      b.inputs,
		Outputs:     b.outputs,
		Properties:  b.props.Descriptors(),
		Description: b.description,
		Flags:       b.flags,
		Module:      b.module,
	}
}
