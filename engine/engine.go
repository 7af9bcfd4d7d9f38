package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/metric"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/pkg/buffer"
)

const defaultHistory = 64

// nodeState is the runtime state the engine keeps for one node instance.
type nodeState struct {
	outputs []flowdata.Value
	state   State
	status  node.Status
	latency *buffer.Ring[time.Duration]
}

// Engine evaluates a graph one cycle at a time. It is not safe for
// concurrent use, and the graph must not be edited while a cycle runs.
type Engine struct {
	g         *graph.Graph
	logger    *slog.Logger
	metrics   *engineMetrics
	publisher Publisher

	skipClean   bool
	initOnStart bool
	history     int

	cycle  uint64
	states map[uint64]*nodeState // keyed by node serial
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics registers engine metrics. A nil registry disables them.
func WithMetrics(mr *metric.MetricsRegistry) Option {
	return func(e *Engine) {
		if mr == nil {
			return
		}
		m, err := newEngineMetrics(mr)
		if err != nil {
			e.logger.Error("Failed to initialize engine metrics", "error", err)
			return
		}
		e.metrics = m
	}
}

// WithPublisher sends every cycle report to p.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithSkipClean makes cycles skip nodes that are not dirty. By default every
// node is evaluated each cycle.
func WithSkipClean(skip bool) Option {
	return func(e *Engine) {
		e.skipClean = skip
	}
}

// WithInitOnStart makes the first cycle of Run an initializing cycle.
func WithInitOnStart(init bool) Option {
	return func(e *Engine) {
		e.initOnStart = init
	}
}

// WithHistory sets how many latency samples are kept per node.
func WithHistory(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.history = n
		}
	}
}

// New creates an engine for g.
func New(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		g:       g,
		logger:  slog.Default(),
		history: defaultHistory,
		states:  make(map[uint64]*nodeState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph the engine evaluates.
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// Cycles returns the number of completed cycles.
func (e *Engine) Cycles() uint64 {
	return e.cycle
}

// Execute runs one cycle.
func (e *Engine) Execute(ctx context.Context) (*CycleReport, error) {
	return e.execute(ctx, false)
}

// ExecuteWithInit runs one cycle, first calling Initialize on every stateful
// node that implements node.Initializer.
func (e *Engine) ExecuteWithInit(ctx context.Context) (*CycleReport, error) {
	return e.execute(ctx, true)
}

func (e *Engine) execute(ctx context.Context, withInit bool) (*CycleReport, error) {
	order, err := e.g.ExecutionOrder()
	if err != nil {
		return nil, errors.Wrap(err, "Engine", "Execute", "execution order")
	}
	e.prune()

	report := &CycleReport{
		ID:      uuid.New(),
		Cycle:   e.cycle + 1,
		Started: time.Now(),
		Results: make([]NodeResult, 0, len(order)),
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(report.Started)
			return report, errors.WrapTransient(err, "Engine", "Execute", "cycle cancelled")
		}
		n, _ := e.g.Node(id)
		res := e.runNode(n, withInit)
		report.Results = append(report.Results, res)
		e.metrics.recordNode(res)
	}

	report.Duration = time.Since(report.Started)
	e.cycle++
	e.metrics.recordCycle(report)

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, report); err != nil {
			e.logger.Warn("cycle report not published", "cycle", report.Cycle, "error", err)
		}
	}
	return report, nil
}

func (e *Engine) runNode(n *graph.Node, withInit bool) NodeResult {
	id := n.ID()
	st := e.state(n)
	res := NodeResult{ID: id, Name: n.Name(), TypeName: n.TypeName(), State: StateIdle}
	flags := n.Flags()

	if e.skipClean && !e.g.IsDirty(id) {
		res.Skipped = true
		res.Status = st.status
		return res
	}

	if e.g.TakeRestart(id) {
		if r, ok := n.Type().(node.Restarter); ok && !guard(r.Restart) {
			res = e.finish(n, st, res, node.StatusError("restart failed"), 0)
			// Retry on the next cycle; outputs are unchanged so consumers stay clean
			e.g.RearmRestart(id)
			return res
		}
	}

	if withInit && flags.Has(node.FlagHasState) {
		if in, ok := n.Type().(node.Initializer); ok && !guard(in.Initialize) {
			return e.finish(n, st, res, node.StatusError("initialization failed"), 0)
		}
	}

	st.state = StateReadingInputs
	reader, err := e.readInputs(n)
	if err != nil {
		return e.finish(n, st, res, node.StatusError("%s", err.Error()), 0)
	}

	st.state = StateExecuting
	outs := n.Config().OutputSockets()
	kinds := make([]flowdata.Kind, len(outs))
	for i, s := range outs {
		kinds[i] = s.Kind
	}
	writer := newOutputWriter(kinds)

	start := time.Now()
	status := executeGuarded(n.Type(), reader, writer)
	elapsed := time.Since(start)

	switch {
	case flags.Has(node.FlagOverridesTimeComputation) && status.HasTag:
		elapsed = fromMillis(status.TagValue)
	case flags.Has(node.FlagAutoTag) && !status.HasTag:
		status = status.WithTag(millis(elapsed))
	}

	if !status.Failed() {
		writer.commit(st.outputs)
		for _, next := range e.g.Successors(id) {
			e.g.MarkDirty(next)
		}
	}
	return e.finish(n, st, res, status, elapsed)
}

func (e *Engine) finish(n *graph.Node, st *nodeState, res NodeResult, status node.Status, elapsed time.Duration) NodeResult {
	id := n.ID()
	st.state = StateDone
	st.status = status
	st.latency.Push(elapsed)

	e.g.MarkClean(id)
	if status.Outcome == node.Tag || n.Flags().Has(node.FlagAutoTag) {
		e.g.MarkDirty(id)
	}

	switch status.Outcome {
	case node.Error:
		e.logger.Warn("node execution failed",
			"node", n.Name(), "type", n.TypeName(), "message", status.Message)
	case node.Warning:
		e.logger.Warn("node execution warning",
			"node", n.Name(), "type", n.TypeName(), "message", status.Message)
	default:
		e.logger.Debug("node executed",
			"node", n.Name(), "type", n.TypeName(), "status", status.String(), "elapsed", elapsed)
	}

	res.State = StateDone
	res.Status = status
	res.Elapsed = elapsed
	return res
}

// readInputs gathers the current value of each input. Unconnected inputs and
// inputs whose producer has not written yet read as empty values. A generic
// image output may hold a layout the consumer does not accept; that is
// reported as an error.
func (e *Engine) readInputs(n *graph.Node) (*inputReader, error) {
	ins := n.Config().InputSockets()
	values := make([]flowdata.Value, len(ins))

	for i, socket := range ins {
		values[i] = flowdata.Empty()
		from, ok := e.g.ConnectedFrom(graph.SocketAddress{Node: n.ID(), Socket: i})
		if !ok {
			continue
		}
		producer, ok := e.g.Node(from.Node)
		if !ok {
			continue
		}
		pst, ok := e.states[producer.Serial()]
		if !ok || from.Socket >= len(pst.outputs) {
			continue
		}

		v := pst.outputs[from.Socket]
		if !v.IsEmpty() && !flowdata.Compatible(v.DataKind(), socket.Kind) {
			return nil, fmt.Errorf("input %s: got %s, want %s", socket.Name, v.DataKind(), socket.Kind)
		}
		values[i] = v
	}
	return &inputReader{values: values}, nil
}

func (e *Engine) state(n *graph.Node) *nodeState {
	if st, ok := e.states[n.Serial()]; ok {
		return st
	}
	st := &nodeState{
		outputs: make([]flowdata.Value, len(n.Config().OutputSockets())),
		latency: buffer.NewRing[time.Duration](e.history),
	}
	e.states[n.Serial()] = st
	return st
}

// prune drops state of nodes no longer in the graph.
func (e *Engine) prune() {
	live := make(map[uint64]bool, e.g.Len())
	for _, n := range e.g.Nodes() {
		live[n.Serial()] = true
	}
	for serial := range e.states {
		if !live[serial] {
			delete(e.states, serial)
		}
	}
}

// Outputs returns the values a node produced most recently.
func (e *Engine) Outputs(id graph.NodeID) []flowdata.Value {
	n, ok := e.g.Node(id)
	if !ok {
		return nil
	}
	st, ok := e.states[n.Serial()]
	if !ok {
		return nil
	}
	return append([]flowdata.Value(nil), st.outputs...)
}

// LastStatus returns the most recent status of a node.
func (e *Engine) LastStatus(id graph.NodeID) (node.Status, bool) {
	n, ok := e.g.Node(id)
	if !ok {
		return node.Status{}, false
	}
	st, ok := e.states[n.Serial()]
	if !ok {
		return node.Status{}, false
	}
	return st.status, true
}

// Latency returns recent execution times of a node, oldest first.
func (e *Engine) Latency(id graph.NodeID) []time.Duration {
	n, ok := e.g.Node(id)
	if !ok {
		return nil
	}
	st, ok := e.states[n.Serial()]
	if !ok {
		return nil
	}
	return st.latency.Snapshot()
}

func executeGuarded(t node.Type, r node.SocketReader, w node.SocketWriter) (status node.Status) {
	defer func() {
		if rec := recover(); rec != nil {
			status = node.StatusError("panic: %v", rec)
		}
	}()
	return t.Execute(r, w)
}

func guard(fn func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn()
}
