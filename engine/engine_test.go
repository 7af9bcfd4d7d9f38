package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/metric"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
	"github.com/c360/nodeflow/registry"
	"github.com/c360/nodeflow/testutil"
)

type EngineSuite struct {
	suite.Suite
	reg *registry.Registry
	g   *graph.Graph

	source, sum, state, auto, timed, generic, mono registry.TypeID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	reg, err := registry.New()
	s.Require().NoError(err)
	s.reg = reg

	s.source = reg.Register("Test/Source", testutil.MockFactory(
		testutil.WithOutputs(flowdata.KindArray)))
	s.sum = reg.Register("Test/Sum", testutil.MockFactory(
		testutil.WithInputs(flowdata.KindArray, flowdata.KindArray),
		testutil.WithOutputs(flowdata.KindArray),
		testutil.WithExecute(testutil.SumArrays())))
	s.state = reg.Register("Test/State", testutil.MockFactory(
		testutil.WithOutputs(flowdata.KindArray),
		testutil.WithFlags(node.FlagHasState)))
	s.auto = reg.Register("Test/Auto", testutil.MockFactory(
		testutil.WithOutputs(flowdata.KindArray),
		testutil.WithFlags(node.FlagAutoTag)))
	s.timed = reg.Register("Test/Timed", testutil.MockFactory(
		testutil.WithFlags(node.FlagOverridesTimeComputation)))
	s.generic = reg.Register("Test/Generic", testutil.MockFactory(
		testutil.WithOutputs(flowdata.KindImage)))
	s.mono = reg.Register("Test/MonoIn", testutil.MockFactory(
		testutil.WithInputs(flowdata.KindImageMono)))

	s.g = graph.New(reg)
}

func (s *EngineSuite) add(typeID registry.TypeID, name string) graph.NodeID {
	id, err := s.g.AddNode(typeID, name)
	s.Require().NoError(err)
	return id
}

func (s *EngineSuite) mock(id graph.NodeID) *testutil.MockNode {
	n, ok := s.g.Node(id)
	s.Require().True(ok)
	return n.Type().(*testutil.MockNode)
}

func (s *EngineSuite) connect(from graph.NodeID, out int, to graph.NodeID, in int) {
	s.Require().NoError(s.g.Connect(
		graph.SocketAddress{Node: from, Socket: out},
		graph.SocketAddress{Node: to, Socket: in}))
}

func (s *EngineSuite) array(e *Engine, id graph.NodeID) float64 {
	outs := e.Outputs(id)
	s.Require().NotEmpty(outs)
	s.Require().False(outs[0].IsEmpty())
	return outs[0].AsArray().At(0, 0)
}

// sumGraph builds a(1) and b(2) feeding sum.
func (s *EngineSuite) sumGraph() (a, b, sum graph.NodeID) {
	a = s.add(s.source, "a")
	b = s.add(s.source, "b")
	sum = s.add(s.sum, "sum")
	s.mock(a).ExecuteFunc = testutil.ProduceArray(1)
	s.mock(b).ExecuteFunc = testutil.ProduceArray(2)
	s.connect(a, 0, sum, 0)
	s.connect(b, 0, sum, 1)
	return a, b, sum
}

func (s *EngineSuite) TestExecute_PropagatesValues() {
	a, b, sum := s.sumGraph()
	e := New(s.g)

	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	s.Equal(uint64(1), report.Cycle)
	s.Len(report.Results, 3)
	s.Equal([]graph.NodeID{a, b, sum},
		[]graph.NodeID{report.Results[0].ID, report.Results[1].ID, report.Results[2].ID})
	for _, res := range report.Results {
		s.Equal(StateDone, res.State)
		s.Equal(node.Ok, res.Status.Outcome)
	}
	s.False(report.HasErrors())
	s.Equal(3.0, s.array(e, sum))
	s.Equal(uint64(1), e.Cycles())
}

func (s *EngineSuite) TestExecute_UnconnectedInputReadsEmpty() {
	a := s.add(s.source, "a")
	sum := s.add(s.sum, "sum")
	s.mock(a).ExecuteFunc = testutil.ProduceArray(4)
	s.connect(a, 0, sum, 1)

	e := New(s.g)
	_, err := e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal(4.0, s.array(e, sum))
}

func (s *EngineSuite) TestExecute_ErrorKeepsPreviousOutputs() {
	a, _, sum := s.sumGraph()
	e := New(s.g)

	_, err := e.Execute(context.Background())
	s.Require().NoError(err)

	s.mock(a).ExecuteFunc = func(_ node.SocketReader, w node.SocketWriter) node.Status {
		arr := flowdata.NewArray(1, 1)
		arr.Set(0, 0, 50)
		w.Acquire(0).SetArray(arr)
		return node.StatusError("sensor offline")
	}

	report, err := e.Execute(context.Background())
	s.Require().NoError(err)
	s.True(report.HasErrors())

	errs := report.Errors()
	s.Require().Len(errs, 1)
	s.Equal("node a (Test/Source): sensor offline", errs[0].Error())

	s.Equal(1.0, s.array(e, a), "failed node keeps its previous output")
	s.Equal(3.0, s.array(e, sum))
}

func (s *EngineSuite) TestExecute_PanicBecomesError() {
	a := s.add(s.source, "a")
	s.mock(a).ExecuteFunc = func(node.SocketReader, node.SocketWriter) node.Status {
		panic("boom")
	}

	e := New(s.g)
	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, ok := report.Result(a)
	s.Require().True(ok)
	s.Equal(node.Error, res.Status.Outcome)
	s.Contains(res.Status.Message, "boom")
}

func (s *EngineSuite) TestExecute_UnacquiredOutputSurvives() {
	a := s.add(s.source, "a")
	calls := 0
	s.mock(a).ExecuteFunc = func(r node.SocketReader, w node.SocketWriter) node.Status {
		calls++
		if calls == 1 {
			return testutil.ProduceArray(7)(r, w)
		}
		return node.StatusOk()
	}

	e := New(s.g)
	for range 2 {
		_, err := e.Execute(context.Background())
		s.Require().NoError(err)
	}
	s.Equal(2, calls)
	s.Equal(7.0, s.array(e, a))
}

func (s *EngineSuite) TestExecute_SkipClean() {
	a, b, sum := s.sumGraph()
	e := New(s.g, WithSkipClean(true))

	report, err := e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal(3, report.Executed())
	s.Empty(s.g.DirtyNodes())

	report, err = e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal(0, report.Executed())
	res, _ := report.Result(sum)
	s.True(res.Skipped)
	s.Equal(node.Ok, res.Status.Outcome, "skipped node reports its last status")

	s.Require().NoError(s.g.SetProperty(a, 0, property.IntValue(5)))
	report, err = e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal(2, report.Executed())

	res, _ = report.Result(b)
	s.True(res.Skipped)

	exec, _, _ := s.mock(b).Calls()
	s.Equal(1, exec)
	exec, _, _ = s.mock(sum).Calls()
	s.Equal(2, exec)
}

func (s *EngineSuite) TestExecute_ExecutedNodeDirtiesConsumers() {
	a, _, sum := s.sumGraph()
	e := New(s.g, WithSkipClean(true))

	_, err := e.Execute(context.Background())
	s.Require().NoError(err)

	// Only the source is dirty; running it must pull the sum along.
	s.g.MarkDirty(a)
	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(sum)
	s.False(res.Skipped)
}

func (s *EngineSuite) TestExecute_TagKeepsNodeDirty() {
	a := s.add(s.source, "a")
	s.mock(a).ExecuteFunc = func(node.SocketReader, node.SocketWriter) node.Status {
		return node.StatusTag(1.5)
	}

	e := New(s.g, WithSkipClean(true))
	for range 3 {
		_, err := e.Execute(context.Background())
		s.Require().NoError(err)
	}
	exec, _, _ := s.mock(a).Calls()
	s.Equal(3, exec)
	s.True(s.g.IsDirty(a))
}

func (s *EngineSuite) TestExecute_AutoTagAttachesElapsed() {
	id := s.add(s.auto, "ticker")
	e := New(s.g, WithSkipClean(true))

	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(id)
	s.True(res.Status.HasTag)
	s.InDelta(millis(res.Elapsed), res.Status.TagValue, 1e-9)
	s.True(s.g.IsDirty(id))

	_, err = e.Execute(context.Background())
	s.Require().NoError(err)
	exec, _, _ := s.mock(id).Calls()
	s.Equal(2, exec)
}

func (s *EngineSuite) TestExecute_OverridesTimeComputation() {
	id := s.add(s.timed, "timed")
	s.mock(id).ExecuteFunc = func(node.SocketReader, node.SocketWriter) node.Status {
		return node.StatusOk().WithTag(250)
	}

	e := New(s.g)
	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(id)
	s.Equal(250*time.Millisecond, res.Elapsed)
	s.Equal([]time.Duration{250 * time.Millisecond}, e.Latency(id))
}

func (s *EngineSuite) TestExecute_Restart() {
	id := s.add(s.state, "frames")
	e := New(s.g)

	_, err := e.Execute(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(s.g.RequestRestart(id))
	_, err = e.Execute(context.Background())
	s.Require().NoError(err)

	exec, restart, _ := s.mock(id).Calls()
	s.Equal(2, exec)
	s.Equal(1, restart)

	// The request is consumed
	_, err = e.Execute(context.Background())
	s.Require().NoError(err)
	_, restart, _ = s.mock(id).Calls()
	s.Equal(1, restart)
}

func (s *EngineSuite) TestExecute_FailedRestartRetries() {
	id := s.add(s.state, "frames")
	sibling := s.add(s.source, "sibling")
	s.mock(id).RestartFunc = func() bool { return false }
	s.Require().NoError(s.g.RequestRestart(id))

	e := New(s.g)
	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(id)
	s.Equal(node.Error, res.Status.Outcome)
	s.Equal("restart failed", res.Status.Message)

	sib, _ := report.Result(sibling)
	s.Equal(node.Ok, sib.Status.Outcome)
	exec, _, _ := s.mock(sibling).Calls()
	s.Equal(1, exec, "siblings still execute in the same cycle")

	_, err = e.Execute(context.Background())
	s.Require().NoError(err)

	exec, restart, _ := s.mock(id).Calls()
	s.Equal(0, exec, "node must not execute after a failed restart")
	s.Equal(2, restart)
}

func (s *EngineSuite) TestExecute_FailedRestartKeepsConsumersClean() {
	frames := s.add(s.state, "frames")
	sum := s.add(s.sum, "sum")
	s.connect(frames, 0, sum, 0)
	s.mock(frames).RestartFunc = func() bool { return false }
	s.Require().NoError(s.g.RequestRestart(frames))

	e := New(s.g, WithSkipClean(true))
	_, err := e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal([]graph.NodeID{frames}, s.g.DirtyNodes(), "only the failed node stays dirty")

	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(frames)
	s.False(res.Skipped)
	s.Equal("restart failed", res.Status.Message)
	res, _ = report.Result(sum)
	s.True(res.Skipped, "consumer is not re-run on unchanged inputs")

	exec, restart, _ := s.mock(sum).Calls()
	s.Equal(1, exec)
	s.Zero(restart)
	_, restart, _ = s.mock(frames).Calls()
	s.Equal(2, restart)
}

func (s *EngineSuite) TestExecuteWithInit_OnlyStatefulNodes() {
	stateful := s.add(s.state, "frames")
	plain := s.add(s.source, "plain")

	e := New(s.g)
	_, err := e.ExecuteWithInit(context.Background())
	s.Require().NoError(err)

	_, _, inits := s.mock(stateful).Calls()
	s.Equal(1, inits)
	_, _, inits = s.mock(plain).Calls()
	s.Equal(0, inits)

	s.mock(stateful).InitializeFunc = func() bool { return false }
	report, err := e.ExecuteWithInit(context.Background())
	s.Require().NoError(err)
	res, _ := report.Result(stateful)
	s.Equal("initialization failed", res.Status.Message)
}

func (s *EngineSuite) TestExecute_GenericImageLayoutMismatch() {
	src := s.add(s.generic, "camera")
	sink := s.add(s.mono, "sink")
	s.connect(src, 0, sink, 0)

	s.mock(src).ExecuteFunc = func(_ node.SocketReader, w node.SocketWriter) node.Status {
		w.Acquire(0).SetImage(image.NewRGBA(image.Rect(0, 0, 4, 4)))
		return node.StatusOk()
	}

	e := New(s.g)
	report, err := e.Execute(context.Background())
	s.Require().NoError(err)

	res, _ := report.Result(sink)
	s.Equal(node.Error, res.Status.Outcome)
	s.Contains(res.Status.Message, "input in0")
	exec, _, _ := s.mock(sink).Calls()
	s.Equal(0, exec)

	// A mono frame on the same link is accepted
	s.mock(src).ExecuteFunc = func(_ node.SocketReader, w node.SocketWriter) node.Status {
		w.Acquire(0).SetImage(image.NewGray(image.Rect(0, 0, 4, 4)))
		return node.StatusOk()
	}
	report, err = e.Execute(context.Background())
	s.Require().NoError(err)
	res, _ = report.Result(sink)
	s.Equal(node.Ok, res.Status.Outcome)
}

func (s *EngineSuite) TestExecute_Cancelled() {
	s.sumGraph()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(s.g)
	report, err := e.Execute(ctx)
	s.Require().Error(err)
	s.True(errors.IsTransient(err))
	s.ErrorIs(err, context.Canceled)
	s.Empty(report.Results)
	s.Equal(uint64(0), e.Cycles())
}

func (s *EngineSuite) TestExecute_RecycledIDStartsFresh() {
	a := s.add(s.source, "a")
	s.mock(a).ExecuteFunc = testutil.ProduceArray(9)

	e := New(s.g)
	_, err := e.Execute(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(s.g.RemoveNode(a))
	b := s.add(s.source, "b")
	s.Equal(a, b, "id is recycled")

	s.Empty(e.Outputs(b), "recycled id must not inherit outputs")
	_, ok := e.LastStatus(b)
	s.False(ok)
}

func (s *EngineSuite) TestLatency_Bounded() {
	a := s.add(s.source, "a")
	e := New(s.g, WithHistory(2))
	for range 5 {
		_, err := e.Execute(context.Background())
		s.Require().NoError(err)
	}
	s.Len(e.Latency(a), 2)
	s.Nil(e.Latency(graph.NodeID(42)))
	s.Nil(e.Outputs(graph.NodeID(42)))
}

func (s *EngineSuite) TestPublisher_NATS() {
	a, _, _ := s.sumGraph()
	conn := testutil.NewMockNATSConn()
	mr := metric.NewMetricsRegistry()

	e := New(s.g,
		WithMetrics(mr),
		WithPublisher(NewNATSPublisher(conn, "nodeflow.status", mr.CoreMetrics())))

	for range 2 {
		_, err := e.Execute(context.Background())
		s.Require().NoError(err)
	}

	msgs := conn.GetMessages("nodeflow.status.2")
	s.Require().Len(msgs, 1)

	var summary Summary
	s.Require().NoError(json.Unmarshal(msgs[0], &summary))
	s.Equal(uint64(2), summary.Cycle)
	s.Require().Len(summary.Nodes, 3)
	s.Equal(int(a), summary.Nodes[0].ID)
	s.Equal("Test/Source", summary.Nodes[0].Type)
	s.Equal("ok", summary.Nodes[0].Outcome)

	s.Equal(2.0, promtestutil.ToFloat64(mr.CoreMetrics().StatusPublished.WithLabelValues("nodeflow.status")))
	s.Equal(2.0, promtestutil.ToFloat64(e.metrics.cycles))
	s.Equal(2.0, promtestutil.ToFloat64(e.metrics.executions.WithLabelValues("Test/Sum", "ok")))
}

func (s *EngineSuite) TestPublisher_FailureDoesNotFailCycle() {
	s.add(s.source, "a")
	conn := testutil.NewMockNATSConn()
	conn.PublishErr = fmt.Errorf("no responders")
	mr := metric.NewMetricsRegistry()

	e := New(s.g, WithPublisher(NewNATSPublisher(conn, "nodeflow.status", mr.CoreMetrics())))
	_, err := e.Execute(context.Background())
	s.Require().NoError(err)
	s.Equal(1.0, promtestutil.ToFloat64(mr.CoreMetrics().PublishErrors))
}

func (s *EngineSuite) TestRun_Cycles() {
	id := s.add(s.state, "frames")
	e := New(s.g, WithInitOnStart(true))

	s.Require().NoError(e.Run(context.Background(), 0, 3))
	s.Equal(uint64(3), e.Cycles())

	exec, _, inits := s.mock(id).Calls()
	s.Equal(3, exec)
	s.Equal(1, inits)
}

func (s *EngineSuite) TestRun_StopsOnCancel() {
	s.add(s.source, "a")
	e := New(s.g)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.NoError(e.Run(ctx, 50, 0))
	s.Greater(e.Cycles(), uint64(0))
}

func TestPublishers_JoinsErrors(t *testing.T) {
	var seen []string
	ok := PublisherFunc(func(context.Context, *CycleReport) error {
		seen = append(seen, "ok")
		return nil
	})
	bad := PublisherFunc(func(context.Context, *CycleReport) error {
		seen = append(seen, "bad")
		return fmt.Errorf("down")
	})

	err := Publishers(bad, ok).Publish(context.Background(), &CycleReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Equal(t, []string{"bad", "ok"}, seen)
}

func TestCycleReport_Summary(t *testing.T) {
	report := &CycleReport{
		Cycle:    4,
		Duration: 1500 * time.Microsecond,
		Results: []NodeResult{
			{ID: 0, Name: "a", TypeName: "T/A", Status: node.StatusTag(2), Elapsed: time.Millisecond},
			{ID: 1, Name: "b", TypeName: "T/B", Status: node.StatusWarning("low light"), Skipped: true},
		},
	}

	sum := report.Summary()
	assert.Equal(t, 1.5, sum.DurationMs)
	require.Len(t, sum.Nodes, 2)
	require.NotNil(t, sum.Nodes[0].Tag)
	assert.Equal(t, 2.0, *sum.Nodes[0].Tag)
	assert.Equal(t, "tag", sum.Nodes[0].Outcome)
	assert.Nil(t, sum.Nodes[1].Tag)
	assert.Equal(t, "low light", sum.Nodes[1].Message)
	assert.Len(t, report.Warnings(), 1)
	assert.Equal(t, 1, report.Executed())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "reading_inputs", StateReadingInputs.String())
	assert.Equal(t, "unknown", State(9).String())
}
