package builtin

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

// imageSequence plays the image files of a directory as a frame stream. At the
// end of the stream it stops writing so consumers keep the last frame; a
// restart rewinds to the first frame.
type imageSequence struct {
	node.Base
	dir        property.Filepath
	pattern    string
	grayscale  bool
	startFrame int
	endFrame   int

	frames []string
	cursor int
	opened bool
}

func newImageSequence() *imageSequence {
	n := &imageSequence{pattern: "*.png"}
	n.AddOutput("Output", flowdata.KindImage)
	n.AddProperty(property.BindFilepath("Directory", &n.dir))
	n.AddProperty(property.BindString("Pattern", &n.pattern))
	n.AddProperty(property.BindBool("Force grayscale", &n.grayscale))
	n.AddProperty(property.BindInt("Start frame", &n.startFrame)).WithMin(0)
	n.AddProperty(property.BindInt("End frame", &n.endFrame)).WithMin(0)
	n.SetDescription("Provides frames from the image files of a directory in name order.")
	n.SetFlags(node.FlagHasState | node.FlagAutoTag | node.FlagOverridesTimeComputation)
	return n
}

// Restart lists the frames again and rewinds to the start frame.
func (n *imageSequence) Restart() bool {
	n.opened = false
	if n.dir == "" {
		return false
	}
	frames, err := filepath.Glob(filepath.Join(string(n.dir), n.pattern))
	if err != nil || len(frames) == 0 {
		return false
	}
	slices.Sort(frames)

	n.frames = frames
	n.cursor = min(n.startFrame, len(frames))
	n.opened = true
	return true
}

// Initialize opens the sequence before the first cycle of a run.
func (n *imageSequence) Initialize() bool {
	return n.Restart()
}

func (n *imageSequence) end() int {
	if n.endFrame > 0 {
		return min(n.endFrame, len(n.frames))
	}
	return len(n.frames)
}

func (n *imageSequence) Execute(_ node.SocketReader, w node.SocketWriter) node.Status {
	if !n.opened {
		return node.StatusOk()
	}
	if n.cursor >= n.end() {
		return node.StatusOk(fmt.Sprintf("end of sequence, frame %d/%d", n.cursor, len(n.frames)))
	}

	start := time.Now()
	img, err := loadImage(n.frames[n.cursor], n.grayscale)
	if err != nil {
		return node.StatusError("frame %d: %v", n.cursor, err)
	}
	w.Acquire(0).SetImage(img)
	n.cursor++

	status := node.StatusTag(float64(time.Since(start)) / float64(time.Millisecond))
	status.Message = fmt.Sprintf("%s, frame %d/%d", describeImage(img), n.cursor, len(n.frames))
	return status
}
