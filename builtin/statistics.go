package builtin

import (
	"fmt"
	"math"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
)

// Columns of the statistics array.
const (
	StatMin = iota
	StatMax
	StatMean
	StatStdDev
	statColumns
)

// statistics summarizes the intensity distribution of an image as a 1x4
// array: min, max, mean and standard deviation.
type statistics struct {
	node.Base
}

func newStatistics() *statistics {
	n := &statistics{}
	n.AddInput("Source", flowdata.KindImage)
	n.AddOutput("Statistics", flowdata.KindArray)
	n.SetDescription("Computes min, max, mean and standard deviation of pixel intensity.")
	return n
}

func (n *statistics) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	src := r.Read(0)
	if src.IsEmpty() {
		return node.StatusOk()
	}

	px := intensities(src.AsImage())
	lo, hi := uint8(255), uint8(0)
	var sum, sumSq float64
	for _, v := range px {
		lo, hi = min(lo, v), max(hi, v)
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	count := float64(len(px))
	mean := sum / count
	variance := max(sumSq/count-mean*mean, 0)

	out := flowdata.NewArray(1, statColumns)
	out.Set(0, StatMin, float64(lo))
	out.Set(0, StatMax, float64(hi))
	out.Set(0, StatMean, mean)
	out.Set(0, StatStdDev, math.Sqrt(variance))
	w.Acquire(0).SetArray(out)

	return node.StatusOk(fmt.Sprintf("mean %.2f, stddev %.2f", mean, math.Sqrt(variance)))
}
