package builtin

import (
	"image"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

// gray converts any host image to a single channel image.
type gray struct {
	node.Base
}

func newGray() *gray {
	n := &gray{}
	n.AddInput("Source", flowdata.KindImage)
	n.AddOutput("Output", flowdata.KindImageMono)
	n.SetDescription("Converts an image to grayscale.")
	return n
}

func (n *gray) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}
	w.Acquire(0).SetImageMono(toGray(src.AsImage()))
	return node.StatusOk()
}

const (
	thresholdBinary property.Enum = iota
	thresholdBinaryInverted
)

// threshold binarizes a mono image at a fixed level.
type threshold struct {
	node.Base
	level  int
	method property.Enum
}

func newThreshold() *threshold {
	n := &threshold{level: 128}
	n.AddInput("Source", flowdata.KindImageMono)
	n.AddOutput("Output", flowdata.KindImageMono)
	n.AddProperty(property.BindInt("Threshold", &n.level)).WithRange(0, 255)
	n.AddProperty(property.BindEnum("Method", &n.method, "Binary", "Binary inverted"))
	n.SetDescription("Applies a fixed-level threshold to each pixel.")
	return n
}

func (n *threshold) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}
	in := src.AsImageMono()
	b := in.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	above, below := uint8(255), uint8(0)
	if n.method == thresholdBinaryInverted {
		above, below = below, above
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := below
			if int(in.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > n.level {
				v = above
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	w.Acquire(0).SetImageMono(out)
	return node.StatusOk()
}
