package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeflow/errors"
)

func TestValue_CheckedAccessors(t *testing.T) {
	v := IntValue(7)

	n, err := v.AsInt()
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = v.AsFloat()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPropertyKind)
	assert.True(t, errors.IsInvalid(err))

	_, err = Value{}.AsBool()
	assert.Error(t, err)
}

func TestValue_Convert(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		to      Kind
		want    Value
		wantErr bool
	}{
		{"int to float", IntValue(3), KindFloat, FloatValue(3), false},
		{"integral float to int", FloatValue(4), KindInt, IntValue(4), false},
		{"fractional float to int", FloatValue(4.5), KindInt, Value{}, true},
		{"int to enum", IntValue(1), KindEnum, EnumValue(1), false},
		{"enum to int", EnumValue(2), KindInt, IntValue(2), false},
		{"string to filepath", StringValue("a.png"), KindFilepath, FilepathValue("a.png"), false},
		{"bool to int", BoolValue(true), KindInt, Value{}, true},
		{"same kind", StringValue("x"), KindString, StringValue("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Convert(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrPropertyKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "0.5", FloatValue(0.5).String())
	assert.Equal(t, "[0 0 0 0 2 0 0 0 0]", MatrixValue(CenterMatrix(2)).String())
	assert.Equal(t, "<unknown>", Value{}.String())
}

func TestParseHint(t *testing.T) {
	h := ParseHint("min:1, max: 31, step:2, wrap:true")
	require.NotNil(t, h.Min)
	require.NotNil(t, h.Max)
	require.NotNil(t, h.Step)
	assert.Equal(t, 1.0, *h.Min)
	assert.Equal(t, 31.0, *h.Max)
	assert.Equal(t, 2.0, *h.Step)
	assert.True(t, h.Wrap)

	h = ParseHint("item: No operation, item: Average, item: Gaussian")
	assert.Equal(t, []string{"No operation", "Average", "Gaussian"}, h.Items)

	h = ParseHint("min:0, filter:Images (*.png, *.jpg)")
	assert.Equal(t, "Images (*.png, *.jpg)", h.Filter)
	assert.Equal(t, 0.0, *h.Min)

	h = ParseHint("precision:3")
	assert.Equal(t, "3", h.Extra["precision"])
}

func TestDescriptor_Parse(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		raw     any
		want    Value
		wantErr bool
	}{
		{"bool", Descriptor{Kind: KindBool}, true, BoolValue(true), false},
		{"bool from string", Descriptor{Kind: KindBool}, "false", BoolValue(false), false},
		{"int from json number", Descriptor{Kind: KindInt}, float64(12), IntValue(12), false},
		{"int from yaml int", Descriptor{Kind: KindInt}, 12, IntValue(12), false},
		{"int from fraction", Descriptor{Kind: KindInt}, 1.5, Value{}, true},
		{"float from int", Descriptor{Kind: KindFloat}, 2, FloatValue(2), false},
		{"enum by label", Descriptor{Kind: KindEnum, Hint: "item: Box, item: Gaussian"}, "gaussian", EnumValue(1), false},
		{"enum by index", Descriptor{Kind: KindEnum}, 1, EnumValue(1), false},
		{"enum unknown label", Descriptor{Kind: KindEnum, Hint: "item: Box"}, "Median", Value{}, true},
		{"matrix list", Descriptor{Kind: KindMatrix}, []any{0, 0, 0, 0, 1, 0, 0, 0, 0}, MatrixValue(CenterMatrix(1)), false},
		{"matrix string", Descriptor{Kind: KindMatrix}, "[0 0 0 0 1 0 0 0 0]", MatrixValue(CenterMatrix(1)), false},
		{"matrix short", Descriptor{Kind: KindMatrix}, []any{1, 2}, Value{}, true},
		{"filepath", Descriptor{Kind: KindFilepath}, "in.png", FilepathValue("in.png"), false},
		{"wrong type", Descriptor{Kind: KindBool}, 3, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.desc.Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_SetValidatesAndObserves(t *testing.T) {
	threshold := 10
	var changes []Value

	p := BindInt("Threshold", &threshold).
		WithRange(0, 255).
		WithObserver(func(_, updated Value) { changes = append(changes, updated) })

	assert.Equal(t, "min:0, max:255", p.Descriptor().Hint)

	require.NoError(t, p.Set(IntValue(100)))
	assert.Equal(t, 100, threshold)

	// Same value does not notify
	require.NoError(t, p.Set(IntValue(100)))

	err := p.Set(IntValue(300))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
	assert.Equal(t, 100, threshold, "rejected value must not be stored")

	// Float converts when integral
	require.NoError(t, p.Set(FloatValue(50)))
	assert.Equal(t, 50, threshold)

	err = p.Set(StringValue("12"))
	assert.ErrorIs(t, err, errors.ErrPropertyKind)

	assert.Equal(t, []Value{IntValue(100), IntValue(50)}, changes)
}

func TestBindEnum(t *testing.T) {
	method := Enum(0)
	p := BindEnum("Method", &method, "Binary", "Binary inverted")

	assert.Equal(t, KindEnum, p.Descriptor().Kind)
	assert.Equal(t, []string{"Binary", "Binary inverted"}, p.Descriptor().ParsedHint().Items)

	require.NoError(t, p.Set(EnumValue(1)))
	assert.Equal(t, Enum(1), method)

	assert.ErrorIs(t, p.Set(EnumValue(2)), errors.ErrOutOfRange)
}

func TestSet(t *testing.T) {
	var (
		enabled bool
		path    Filepath
		kernel  Matrix3x3
	)

	var s Set
	s.Add(BindBool("Enabled", &enabled))
	s.Add(BindFilepath("File", &path)).WithHint("filter:Images (*.png)")
	s.Add(BindMatrix("Kernel", &kernel))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.IndexOf("File"))
	assert.Equal(t, -1, s.IndexOf("Missing"))

	descs := s.Descriptors()
	assert.Equal(t, KindFilepath, descs[1].Kind)
	assert.Equal(t, "Images (*.png)", descs[1].ParsedHint().Filter)

	require.NoError(t, s.SetValue(1, StringValue("lena.png")))
	v, err := s.Value(1)
	require.NoError(t, err)
	assert.Equal(t, FilepathValue("lena.png"), v)

	_, err = s.Value(5)
	assert.ErrorIs(t, err, errors.ErrInvalidProperty)
	assert.ErrorIs(t, s.SetValue(-1, BoolValue(true)), errors.ErrInvalidProperty)
}

func TestOdd(t *testing.T) {
	validate := Odd()
	assert.NoError(t, validate(IntValue(3)))
	assert.ErrorIs(t, validate(IntValue(4)), errors.ErrOutOfRange)
}
