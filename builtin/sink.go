package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

const (
	formatPNG property.Enum = iota
	formatJPEG
)

// FramePlaceholder in an image writer path is replaced by the zero padded
// frame number.
const FramePlaceholder = "{frame}"

// imageWriter saves every incoming image to disk.
type imageWriter struct {
	node.Base
	path    property.Filepath
	format  property.Enum
	quality int

	frame int
}

func newImageWriter() *imageWriter {
	n := &imageWriter{quality: 90}
	n.AddInput("Input", flowdata.KindImage)
	n.AddProperty(property.BindFilepath("File path", &n.path)).
		WithHint("filter:Images (*.png *.jpg), save:true")
	n.AddProperty(property.BindEnum("Format", &n.format, "PNG", "JPEG"))
	n.AddProperty(property.BindInt("Quality", &n.quality)).WithRange(1, 100)
	n.SetDescription("Saves incoming images. " + FramePlaceholder + " in the path is replaced by the frame number.")
	n.SetFlags(node.FlagHasState)
	return n
}

// Restart resets the frame counter.
func (n *imageWriter) Restart() bool {
	n.frame = 0
	return true
}

func (n *imageWriter) target() string {
	p := string(n.path)
	if strings.Contains(p, FramePlaceholder) {
		p = strings.ReplaceAll(p, FramePlaceholder, fmt.Sprintf("%06d", n.frame))
	}
	return p
}

func (n *imageWriter) Execute(r node.SocketReader, _ node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}
	if n.path == "" {
		return node.StatusError("no file path set")
	}

	path := n.target()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return node.StatusError("%v", err)
	}

	format := "png"
	if n.format == formatJPEG {
		format = "jpeg"
	}
	if err := saveImage(path, src.AsImage(), format, n.quality); err != nil {
		return node.StatusError("write %s: %v", path, err)
	}
	n.frame++
	return node.StatusOk("wrote " + filepath.Base(path))
}
