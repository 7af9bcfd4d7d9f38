package property

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/c360/nodeflow/errors"
)

// Kind tags the type held by a property Value.
type Kind int

// Property kinds
const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindEnum
	KindMatrix
	KindFilepath
	KindString
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindEnum:     "enum",
	KindMatrix:   "matrix",
	KindFilepath: "filepath",
	KindString:   "string",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Matrix3x3 is a row-major 3x3 matrix, used for convolution kernels.
type Matrix3x3 [9]float64

// CenterMatrix returns a matrix with only the center element set.
func CenterMatrix(center float64) Matrix3x3 {
	var m Matrix3x3
	m[4] = center
	return m
}

// Enum is the index of the selected item of an enumerated property.
type Enum int

// Filepath is a path to a file on the local filesystem.
type Filepath string

// Value is a closed variant over the property kinds. The zero Value has
// KindUnknown. Accessors never coerce; use Convert for explicit conversions.
type Value struct {
	kind Kind
	b    bool
	i    int
	f    float64
	s    string
	m    Matrix3x3
}

// BoolValue returns a bool property value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an int property value.
func IntValue(i int) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float property value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// EnumValue returns an enum property value.
func EnumValue(e Enum) Value { return Value{kind: KindEnum, i: int(e)} }

// MatrixValue returns a matrix property value.
func MatrixValue(m Matrix3x3) Value { return Value{kind: KindMatrix, m: m} }

// FilepathValue returns a filepath property value.
func FilepathValue(p Filepath) Value { return Value{kind: KindFilepath, s: string(p)} }

// StringValue returns a string property value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value holds anything.
func (v Value) IsValid() bool { return v.kind != KindUnknown }

func (v Value) mismatch(op string, want Kind) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: have %s, want %s", errors.ErrPropertyKind, v.kind, want),
		"Value", op, "kind check")
}

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch("AsBool", KindBool)
	}
	return v.b, nil
}

// AsInt returns the int held by v.
func (v Value) AsInt() (int, error) {
	if v.kind != KindInt {
		return 0, v.mismatch("AsInt", KindInt)
	}
	return v.i, nil
}

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch("AsFloat", KindFloat)
	}
	return v.f, nil
}

// AsEnum returns the enum index held by v.
func (v Value) AsEnum() (Enum, error) {
	if v.kind != KindEnum {
		return 0, v.mismatch("AsEnum", KindEnum)
	}
	return Enum(v.i), nil
}

// AsMatrix returns the matrix held by v.
func (v Value) AsMatrix() (Matrix3x3, error) {
	if v.kind != KindMatrix {
		return Matrix3x3{}, v.mismatch("AsMatrix", KindMatrix)
	}
	return v.m, nil
}

// AsFilepath returns the path held by v.
func (v Value) AsFilepath() (Filepath, error) {
	if v.kind != KindFilepath {
		return "", v.mismatch("AsFilepath", KindFilepath)
	}
	return Filepath(v.s), nil
}

// AsString returns the string held by v.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch("AsString", KindString)
	}
	return v.s, nil
}

// Convert returns v as the given kind. Allowed conversions are int to float,
// integral float to int, int to and from enum, and filepath to and from string.
func (v Value) Convert(to Kind) (Value, error) {
	if v.kind == to {
		return v, nil
	}
	switch {
	case v.kind == KindInt && to == KindFloat:
		return FloatValue(float64(v.i)), nil
	case v.kind == KindFloat && to == KindInt:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return IntValue(int(v.f)), nil
		}
	case v.kind == KindInt && to == KindEnum:
		return EnumValue(Enum(v.i)), nil
	case v.kind == KindEnum && to == KindInt:
		return IntValue(v.i), nil
	case v.kind == KindFilepath && to == KindString:
		return StringValue(v.s), nil
	case v.kind == KindString && to == KindFilepath:
		return FilepathValue(Filepath(v.s)), nil
	}
	return Value{}, errors.WrapInvalid(
		fmt.Errorf("%w: cannot convert %s to %s", errors.ErrPropertyKind, v.kind, to),
		"Value", "Convert", "conversion")
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String formats the value for display and logs.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindEnum:
		return strconv.Itoa(v.i)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindMatrix:
		parts := make([]string, len(v.m))
		for i, x := range v.m {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindFilepath, KindString:
		return v.s
	}
	return "<unknown>"
}

// Any returns the held value as a plain Go value, for encoding.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt, KindEnum:
		return v.i
	case KindFloat:
		return v.f
	case KindMatrix:
		out := make([]float64, len(v.m))
		copy(out, v.m[:])
		return out
	case KindFilepath, KindString:
		return v.s
	}
	return nil
}
