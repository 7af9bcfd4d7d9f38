package flowdata

import (
	"fmt"
	"image"
	"image/draw"
)

// Keypoint is a single detected feature location.
type Keypoint struct {
	X, Y     float64
	Size     float64
	Angle    float64
	Response float64
}

// KeypointSet holds detected keypoints and the image they were detected on.
// Both travel together so downstream nodes can describe or draw them.
type KeypointSet struct {
	Points []Keypoint
	Image  image.Image
}

// Array is a dense row-major matrix of float64 values.
type Array struct {
	Rows int
	Cols int
	Data []float64
}

// NewArray allocates a zeroed rows x cols array.
func NewArray(rows, cols int) *Array {
	return &Array{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the element at row r, column c.
func (a *Array) At(r, c int) float64 {
	return a.Data[r*a.Cols+c]
}

// Set stores v at row r, column c.
func (a *Array) Set(r, c int, v float64) {
	a.Data[r*a.Cols+c] = v
}

// DeviceImage is a handle to an image that lives in device memory. The compute
// module that produced it owns the memory; Release returns it.
type DeviceImage interface {
	Width() int
	Height() int
	BytesPerElement() int
	Release()
}

// KindError is the panic value raised when a Value is read or written as the
// wrong kind. It indicates a node declaring its sockets incorrectly.
type KindError struct {
	Op   string
	Want Kind
	Have Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("flowdata: %s on %s value, want %s", e.Op, e.Have, e.Want)
}

// Value carries exactly one item of socket data. The zero Value is empty and
// has KindInvalid.
type Value struct {
	kind Kind
	data any
}

// Empty returns a value with no kind and no data.
func Empty() Value {
	return Value{}
}

// New returns an empty value of the given kind, ready to be filled by one of
// the Set methods.
func New(kind Kind) Value {
	return Value{kind: kind}
}

// FromImageMono wraps a single channel image.
func FromImageMono(img *image.Gray) Value {
	return Value{kind: KindImageMono, data: img}
}

// FromImageRgb wraps a color image.
func FromImageRgb(img *image.RGBA) Value {
	return Value{kind: KindImageRgb, data: img}
}

// FromImage wraps any image. Gray images become mono values; every other
// layout is converted to RGBA.
func FromImage(img image.Image) Value {
	switch v := img.(type) {
	case *image.Gray:
		return FromImageMono(v)
	case *image.RGBA:
		return FromImageRgb(v)
	}
	return FromImageRgb(ToRGBA(img))
}

// FromKeypoints wraps a keypoint set.
func FromKeypoints(set KeypointSet) Value {
	return Value{kind: KindKeypoints, data: set}
}

// FromArray wraps a numeric array.
func FromArray(a *Array) Value {
	return Value{kind: KindArray, data: a}
}

// FromDeviceImage wraps a device image handle. kind must be a device image kind.
func FromDeviceImage(kind Kind, img DeviceImage) Value {
	if !kind.IsDeviceImage() {
		panic(&KindError{Op: "FromDeviceImage", Want: KindDeviceImage, Have: kind})
	}
	return Value{kind: kind, data: img}
}

// Kind returns the declared kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// DataKind returns the concrete kind of the data held. It differs from Kind
// only for generic image values, which report the layout they carry.
func (v Value) DataKind() Kind {
	if v.kind == KindImage {
		switch v.data.(type) {
		case *image.Gray:
			return KindImageMono
		case *image.RGBA:
			return KindImageRgb
		}
	}
	return v.kind
}

// IsValid reports whether the value has a kind.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// IsEmpty reports whether the value carries no data or zero-sized data.
func (v Value) IsEmpty() bool {
	switch d := v.data.(type) {
	case nil:
		return true
	case *image.Gray:
		return d == nil || d.Rect.Empty()
	case *image.RGBA:
		return d == nil || d.Rect.Empty()
	case KeypointSet:
		return len(d.Points) == 0
	case *Array:
		return d == nil || len(d.Data) == 0
	case DeviceImage:
		return d.Width() == 0 || d.Height() == 0
	}
	return false
}

// MemoryConsumption estimates the bytes held by the value.
func (v Value) MemoryConsumption() int {
	switch d := v.data.(type) {
	case *image.Gray:
		if d != nil {
			return len(d.Pix)
		}
	case *image.RGBA:
		if d != nil {
			return len(d.Pix)
		}
	case KeypointSet:
		return len(d.Points) * 40
	case *Array:
		if d != nil {
			return len(d.Data) * 8
		}
	case DeviceImage:
		return d.Width() * d.Height() * d.BytesPerElement()
	}
	return 0
}

func (v Value) check(op string, want Kind) {
	if v.kind == want {
		return
	}
	// Generic image sockets may carry either refinement.
	if want.IsHostImage() && v.kind.IsHostImage() && (v.kind == KindImage || want == KindImage) {
		return
	}
	if want.IsDeviceImage() && v.kind.IsDeviceImage() && (v.kind == KindDeviceImage || want == KindDeviceImage) {
		return
	}
	panic(&KindError{Op: op, Want: want, Have: v.kind})
}

// AsImageMono returns the single channel image. It panics when the value is
// not a host image or holds a color image.
func (v Value) AsImageMono() *image.Gray {
	v.check("AsImageMono", KindImageMono)
	switch d := v.data.(type) {
	case nil:
		return nil
	case *image.Gray:
		return d
	}
	panic(&KindError{Op: "AsImageMono", Want: KindImageMono, Have: KindImageRgb})
}

// AsImageRgb returns the color image. It panics when the value is not a host
// image or holds a mono image.
func (v Value) AsImageRgb() *image.RGBA {
	v.check("AsImageRgb", KindImageRgb)
	switch d := v.data.(type) {
	case nil:
		return nil
	case *image.RGBA:
		return d
	}
	panic(&KindError{Op: "AsImageRgb", Want: KindImageRgb, Have: KindImageMono})
}

// AsImage returns the host image regardless of its layout.
func (v Value) AsImage() image.Image {
	v.check("AsImage", KindImage)
	switch d := v.data.(type) {
	case *image.Gray:
		if d != nil {
			return d
		}
	case *image.RGBA:
		if d != nil {
			return d
		}
	}
	return nil
}

// AsKeypoints returns the keypoint set.
func (v Value) AsKeypoints() KeypointSet {
	v.check("AsKeypoints", KindKeypoints)
	set, _ := v.data.(KeypointSet)
	return set
}

// AsArray returns the numeric array.
func (v Value) AsArray() *Array {
	v.check("AsArray", KindArray)
	a, _ := v.data.(*Array)
	return a
}

// AsDeviceImage returns the device image handle.
func (v Value) AsDeviceImage() DeviceImage {
	v.check("AsDeviceImage", KindDeviceImage)
	img, _ := v.data.(DeviceImage)
	return img
}

// SetImageMono stores a single channel image in an acquired value.
func (v *Value) SetImageMono(img *image.Gray) {
	v.check("SetImageMono", KindImageMono)
	v.data = img
}

// SetImageRgb stores a color image in an acquired value.
func (v *Value) SetImageRgb(img *image.RGBA) {
	v.check("SetImageRgb", KindImageRgb)
	v.data = img
}

// SetImage stores any host image, converting layouts other than Gray and RGBA
// to RGBA.
func (v *Value) SetImage(img image.Image) {
	switch d := img.(type) {
	case *image.Gray:
		v.SetImageMono(d)
	case *image.RGBA:
		v.SetImageRgb(d)
	default:
		v.SetImageRgb(ToRGBA(img))
	}
}

// SetKeypoints stores a keypoint set in an acquired value.
func (v *Value) SetKeypoints(set KeypointSet) {
	v.check("SetKeypoints", KindKeypoints)
	v.data = set
}

// SetArray stores an array in an acquired value.
func (v *Value) SetArray(a *Array) {
	v.check("SetArray", KindArray)
	v.data = a
}

// SetDeviceImage stores a device image handle in an acquired value.
func (v *Value) SetDeviceImage(img DeviceImage) {
	v.check("SetDeviceImage", KindDeviceImage)
	v.data = img
}

// ToRGBA converts any image to an RGBA copy with the same bounds.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
