package property

import (
	"fmt"

	"github.com/c360/nodeflow/errors"
)

// Validator accepts or rejects a candidate value before it is stored.
type Validator func(Value) error

// Observer is notified after a value has been stored.
type Observer func(old, updated Value)

// Property binds a descriptor to a Go variable owned by a node. Values set
// through the property are converted to the bound kind, validated and then
// written to the variable.
type Property struct {
	desc       Descriptor
	get        func() Value
	set        func(Value)
	validators []Validator
	observers  []Observer
}

// BindBool binds a bool variable.
func BindBool(label string, p *bool) *Property {
	return &Property{
		desc: Descriptor{Kind: KindBool, Label: label},
		get:  func() Value { return BoolValue(*p) },
		set:  func(v Value) { *p = v.b },
	}
}

// BindInt binds an int variable.
func BindInt(label string, p *int) *Property {
	return &Property{
		desc: Descriptor{Kind: KindInt, Label: label},
		get:  func() Value { return IntValue(*p) },
		set:  func(v Value) { *p = v.i },
	}
}

// BindFloat binds a float64 variable.
func BindFloat(label string, p *float64) *Property {
	return &Property{
		desc: Descriptor{Kind: KindFloat, Label: label},
		get:  func() Value { return FloatValue(*p) },
		set:  func(v Value) { *p = v.f },
	}
}

// BindEnum binds an enum variable. The items are recorded in the hint.
func BindEnum(label string, p *Enum, items ...string) *Property {
	prop := &Property{
		desc: Descriptor{Kind: KindEnum, Label: label},
		get:  func() Value { return EnumValue(*p) },
		set:  func(v Value) { *p = Enum(v.i) },
	}
	if len(items) > 0 {
		hint := ""
		for i, item := range items {
			if i > 0 {
				hint += ", "
			}
			hint += "item: " + item
		}
		prop.desc.Hint = hint
		prop.validators = append(prop.validators, OneOf(len(items)))
	}
	return prop
}

// BindMatrix binds a 3x3 matrix variable.
func BindMatrix(label string, p *Matrix3x3) *Property {
	return &Property{
		desc: Descriptor{Kind: KindMatrix, Label: label},
		get:  func() Value { return MatrixValue(*p) },
		set:  func(v Value) { *p = v.m },
	}
}

// BindFilepath binds a filepath variable.
func BindFilepath(label string, p *Filepath) *Property {
	return &Property{
		desc: Descriptor{Kind: KindFilepath, Label: label},
		get:  func() Value { return FilepathValue(*p) },
		set:  func(v Value) { *p = Filepath(v.s) },
	}
}

// BindString binds a string variable.
func BindString(label string, p *string) *Property {
	return &Property{
		desc: Descriptor{Kind: KindString, Label: label},
		get:  func() Value { return StringValue(*p) },
		set:  func(v Value) { *p = v.s },
	}
}

// WithHint sets the editor hint. For enums it is appended to the item list.
func (p *Property) WithHint(hint string) *Property {
	if p.desc.Hint != "" {
		p.desc.Hint += ", " + hint
	} else {
		p.desc.Hint = hint
	}
	return p
}

// WithRange records numeric bounds in the hint and enforces them.
func (p *Property) WithRange(min, max float64) *Property {
	return p.WithHint(fmt.Sprintf("min:%g, max:%g", min, max)).WithValidator(InRange(min, max))
}

// WithMin records a lower bound in the hint and enforces it.
func (p *Property) WithMin(min float64) *Property {
	return p.WithHint(fmt.Sprintf("min:%g", min)).WithValidator(AtLeast(min))
}

// WithValidator adds a validator.
func (p *Property) WithValidator(v Validator) *Property {
	p.validators = append(p.validators, v)
	return p
}

// WithObserver adds an observer.
func (p *Property) WithObserver(o Observer) *Property {
	p.observers = append(p.observers, o)
	return p
}

// Descriptor returns the property descriptor.
func (p *Property) Descriptor() Descriptor {
	return p.desc
}

// Value returns the current value of the bound variable.
func (p *Property) Value() Value {
	return p.get()
}

// Set converts, validates and stores v. The bound variable is unchanged when
// an error is returned. Observers run only when the value actually changed.
func (p *Property) Set(v Value) error {
	converted, err := v.Convert(p.desc.Kind)
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", err, p.desc.Label),
			"Property", "Set", "conversion")
	}
	for _, validate := range p.validators {
		if err := validate(converted); err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%q: %w", p.desc.Label, err),
				"Property", "Set", "validation")
		}
	}

	old := p.get()
	p.set(converted)
	if !old.Equal(converted) {
		for _, observe := range p.observers {
			observe(old, converted)
		}
	}
	return nil
}

// Set is an ordered collection of properties; the position of a property is
// its ID.
type Set struct {
	props []*Property
}

// Add appends a property and returns it for further configuration.
func (s *Set) Add(p *Property) *Property {
	s.props = append(s.props, p)
	return p
}

// Len returns the number of properties.
func (s *Set) Len() int {
	return len(s.props)
}

// Descriptors returns the descriptors in ID order.
func (s *Set) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.props))
	for i, p := range s.props {
		out[i] = p.desc
	}
	return out
}

func (s *Set) lookup(id int, op string) (*Property, error) {
	if id < 0 || id >= len(s.props) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: id %d out of range [0,%d)", errors.ErrInvalidProperty, id, len(s.props)),
			"Set", op, "property lookup")
	}
	return s.props[id], nil
}

// Value returns the value of property id.
func (s *Set) Value(id int) (Value, error) {
	p, err := s.lookup(id, "Value")
	if err != nil {
		return Value{}, err
	}
	return p.Value(), nil
}

// SetValue stores v into property id.
func (s *Set) SetValue(id int, v Value) error {
	p, err := s.lookup(id, "SetValue")
	if err != nil {
		return err
	}
	return p.Set(v)
}

// IndexOf returns the ID of the property with the given label, or -1.
func (s *Set) IndexOf(label string) int {
	for i, p := range s.props {
		if p.desc.Label == label {
			return i
		}
	}
	return -1
}
