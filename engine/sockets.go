package engine

import (
	"fmt"

	"github.com/c360/nodeflow/flowdata"
)

// inputReader serves the values gathered for one node.
type inputReader struct {
	values []flowdata.Value
}

func (r *inputReader) Read(i int) flowdata.Value {
	if i < 0 || i >= len(r.values) {
		return flowdata.Empty()
	}
	return r.values[i]
}

func (r *inputReader) NumInputs() int {
	return len(r.values)
}

// outputWriter allocates output slots lazily. Slots never acquired are left
// out of the commit so the previous cycle's value survives.
type outputWriter struct {
	kinds []flowdata.Kind
	slots []*flowdata.Value
}

func newOutputWriter(kinds []flowdata.Kind) *outputWriter {
	return &outputWriter{kinds: kinds, slots: make([]*flowdata.Value, len(kinds))}
}

func (w *outputWriter) Acquire(i int) *flowdata.Value {
	if i < 0 || i >= len(w.slots) {
		panic(fmt.Sprintf("output %d out of range [0, %d)", i, len(w.slots)))
	}
	if w.slots[i] == nil {
		v := flowdata.New(w.kinds[i])
		w.slots[i] = &v
	}
	return w.slots[i]
}

func (w *outputWriter) NumOutputs() int {
	return len(w.slots)
}

// commit copies acquired slots into outputs.
func (w *outputWriter) commit(outputs []flowdata.Value) {
	for i, slot := range w.slots {
		if slot != nil {
			outputs[i] = *slot
		}
	}
}
