package builtin

import (
	"image"
	"image/color"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

const (
	patternGradient property.Enum = iota
	patternCheckerboard
)

// testPattern generates a synthetic color image.
type testPattern struct {
	node.Base
	width   int
	height  int
	pattern property.Enum
}

func newTestPattern() *testPattern {
	n := &testPattern{width: 64, height: 48}
	n.AddOutput("Output", flowdata.KindImageRgb)
	n.AddProperty(property.BindInt("Width", &n.width)).WithRange(1, 4096)
	n.AddProperty(property.BindInt("Height", &n.height)).WithRange(1, 4096)
	n.AddProperty(property.BindEnum("Pattern", &n.pattern, "Gradient", "Checkerboard"))
	n.SetDescription("Generates a synthetic color test image.")
	return n
}

func (n *testPattern) Execute(_ node.SocketReader, w node.SocketWriter) node.Status {
	img := image.NewRGBA(image.Rect(0, 0, n.width, n.height))
	for y := 0; y < n.height; y++ {
		for x := 0; x < n.width; x++ {
			img.SetRGBA(x, y, n.pixel(x, y))
		}
	}
	w.Acquire(0).SetImageRgb(img)
	return node.StatusOk(describeImage(img))
}

func (n *testPattern) pixel(x, y int) color.RGBA {
	if n.pattern == patternCheckerboard {
		if (x/8+y/8)%2 == 0 {
			return color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: uint8(x * 255 / max(n.width-1, 1)),
		G: uint8(y * 255 / max(n.height-1, 1)),
		B: 128,
		A: 255,
	}
}

// imageFromFile loads an image from disk every cycle.
type imageFromFile struct {
	node.Base
	path      property.Filepath
	grayscale bool
}

func newImageFromFile() *imageFromFile {
	n := &imageFromFile{}
	n.AddOutput("Output", flowdata.KindImage)
	n.AddProperty(property.BindFilepath("File path", &n.path)).
		WithHint("filter:Images (*.png *.jpg *.jpeg *.gif)")
	n.AddProperty(property.BindBool("Force grayscale", &n.grayscale))
	n.SetDescription("Loads an image from a given location.")
	return n
}

func (n *imageFromFile) Execute(_ node.SocketReader, w node.SocketWriter) node.Status {
	if n.path == "" {
		return node.StatusError("no file path set")
	}
	img, err := loadImage(string(n.path), n.grayscale)
	if err != nil {
		return node.StatusError("%v", err)
	}
	w.Acquire(0).SetImage(img)
	return node.StatusOk(describeImage(img))
}
