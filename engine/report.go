package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/node"
)

// State is the execution state of one node within a cycle.
type State int

const (
	// StateIdle means the node has not been visited this cycle.
	StateIdle State = iota
	// StateReadingInputs means the engine is collecting the node's inputs.
	StateReadingInputs
	// StateExecuting means Execute is running.
	StateExecuting
	// StateDone means the node finished, successfully or not.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadingInputs:
		return "reading_inputs"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// NodeResult is the outcome of one node in one cycle.
type NodeResult struct {
	ID       graph.NodeID
	Name     string
	TypeName string
	State    State
	Status   node.Status
	Elapsed  time.Duration
	Skipped  bool
}

// ExecutionError describes a node that finished a cycle with an Error status.
type ExecutionError struct {
	NodeName string
	TypeName string
	Message  string
}

func (e ExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s): %s", e.NodeName, e.TypeName, e.Message)
}

// CycleReport collects the results of one evaluation cycle in execution order.
type CycleReport struct {
	ID       uuid.UUID
	Cycle    uint64
	Started  time.Time
	Duration time.Duration
	Results  []NodeResult
}

// Result returns the result for a node.
func (r *CycleReport) Result(id graph.NodeID) (NodeResult, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return NodeResult{}, false
}

// Executed counts the nodes that were not skipped.
func (r *CycleReport) Executed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// HasErrors reports whether any node failed.
func (r *CycleReport) HasErrors() bool {
	for _, res := range r.Results {
		if res.Status.Outcome == node.Error {
			return true
		}
	}
	return false
}

// Errors returns one ExecutionError per failed node.
func (r *CycleReport) Errors() []ExecutionError {
	var out []ExecutionError
	for _, res := range r.Results {
		if res.Status.Outcome == node.Error {
			out = append(out, ExecutionError{NodeName: res.Name, TypeName: res.TypeName, Message: res.Status.Message})
		}
	}
	return out
}

// Warnings returns the results with a Warning status.
func (r *CycleReport) Warnings() []NodeResult {
	var out []NodeResult
	for _, res := range r.Results {
		if res.Status.Outcome == node.Warning {
			out = append(out, res)
		}
	}
	return out
}

// Summary is the wire form of a CycleReport.
type Summary struct {
	ID         string        `json:"id"`
	Cycle      uint64        `json:"cycle"`
	Started    time.Time     `json:"started"`
	DurationMs float64       `json:"duration_ms"`
	Nodes      []NodeSummary `json:"nodes"`
}

// NodeSummary is the wire form of a NodeResult.
type NodeSummary struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Outcome   string   `json:"outcome"`
	Message   string   `json:"message,omitempty"`
	ElapsedMs float64  `json:"elapsed_ms"`
	Tag       *float64 `json:"tag,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
}

// Summary converts the report to its wire form.
func (r *CycleReport) Summary() Summary {
	s := Summary{
		ID:         r.ID.String(),
		Cycle:      r.Cycle,
		Started:    r.Started,
		DurationMs: millis(r.Duration),
		Nodes:      make([]NodeSummary, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		ns := NodeSummary{
			ID:        int(res.ID),
			Name:      res.Name,
			Type:      res.TypeName,
			Outcome:   res.Status.Outcome.String(),
			Message:   res.Status.Message,
			ElapsedMs: millis(res.Elapsed),
			Skipped:   res.Skipped,
		}
		if res.Status.HasTag {
			tag := res.Status.TagValue
			ns.Tag = &tag
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
