package property

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/nodeflow/errors"
)

// Descriptor describes one property a node type recognizes. The index of a
// descriptor in the node's list is its property ID.
type Descriptor struct {
	Kind  Kind
	Label string
	// Hint is a comma separated list of key:value pairs for editors, e.g.
	// "min:0, max:255, step:1", "item: Box, item: Gaussian" or
	// "filter:Images (*.png *.jpg)".
	Hint string
}

// Hint is the parsed form of Descriptor.Hint.
type Hint struct {
	Min    *float64
	Max    *float64
	Step   *float64
	Wrap   bool
	Items  []string
	Filter string
	// Extra holds keys not recognized above.
	Extra map[string]string
}

// ParseHint parses a hint string. A filter entry consumes the rest of the
// string since file filters may contain commas.
func ParseHint(s string) Hint {
	var h Hint
	rest := s
	if idx := strings.Index(rest, "filter:"); idx >= 0 {
		h.Filter = strings.TrimSpace(rest[idx+len("filter:"):])
		rest = rest[:idx]
	}

	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "min", "max", "step":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			switch key {
			case "min":
				h.Min = &f
			case "max":
				h.Max = &f
			default:
				h.Step = &f
			}
		case "wrap":
			h.Wrap, _ = strconv.ParseBool(value)
		case "item":
			h.Items = append(h.Items, value)
		default:
			if h.Extra == nil {
				h.Extra = make(map[string]string)
			}
			h.Extra[key] = value
		}
	}
	return h
}

// ParsedHint returns the parsed hint of the descriptor.
func (d Descriptor) ParsedHint() Hint {
	return ParseHint(d.Hint)
}

// Parse converts a raw value, as decoded from JSON, YAML or a command line
// flag, into a Value of the descriptor's kind. Enum values accept either an
// index or the label of one of the hint items.
func (d Descriptor) Parse(raw any) (Value, error) {
	v, err := d.parse(raw)
	if err != nil {
		return Value{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q: %v", errors.ErrInvalidProperty, d.Label, err),
			"Descriptor", "Parse", "property decode")
	}
	return v, nil
}

func (d Descriptor) parse(raw any) (Value, error) {
	if s, ok := raw.(string); ok {
		return d.parseString(s)
	}

	switch d.Kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return BoolValue(b), nil
		}
	case KindInt, KindEnum:
		if n, ok := toFloat(raw); ok {
			v, err := FloatValue(n).Convert(KindInt)
			if err != nil {
				return Value{}, err
			}
			return v.Convert(d.Kind)
		}
	case KindFloat:
		if n, ok := toFloat(raw); ok {
			return FloatValue(n), nil
		}
	case KindMatrix:
		if items, ok := raw.([]any); ok && len(items) == 9 {
			var m Matrix3x3
			for i, item := range items {
				n, ok := toFloat(item)
				if !ok {
					return Value{}, fmt.Errorf("matrix element %d is %T", i, item)
				}
				m[i] = n
			}
			return MatrixValue(m), nil
		}
		if m, ok := raw.([]float64); ok && len(m) == 9 {
			return MatrixValue(Matrix3x3(m)), nil
		}
	}
	return Value{}, fmt.Errorf("cannot use %T as %s", raw, d.Kind)
}

func (d Descriptor) parseString(s string) (Value, error) {
	switch d.Kind {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case KindEnum:
		for i, item := range d.ParsedHint().Items {
			if strings.EqualFold(item, s) {
				return EnumValue(Enum(i)), nil
			}
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Value{}, fmt.Errorf("unknown item %q", s)
		}
		return EnumValue(Enum(n)), nil
	case KindMatrix:
		fields := strings.Fields(strings.Trim(s, "[]"))
		if len(fields) != 9 {
			return Value{}, fmt.Errorf("matrix needs 9 elements, got %d", len(fields))
		}
		var m Matrix3x3
		for i, f := range fields {
			n, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return Value{}, err
			}
			m[i] = n
		}
		return MatrixValue(m), nil
	case KindFilepath:
		return FilepathValue(Filepath(s)), nil
	case KindString:
		return StringValue(s), nil
	}
	return Value{}, fmt.Errorf("unsupported kind %s", d.Kind)
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
