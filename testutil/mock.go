package testutil

import (
	"fmt"
	"sync"

	"github.com/c360/nodeflow/flowdata"
	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/property"
)

// MockNode is a configurable node for testing. Inputs are named in0, in1...
// and outputs out0, out1... It exposes one int property labeled "Value".
type MockNode struct {
	node.Base
	mu sync.Mutex

	// Behavior
	ExecuteFunc    func(r node.SocketReader, w node.SocketWriter) node.Status
	RestartFunc    func() bool
	InitializeFunc func() bool

	// Bound property
	Value int

	// Call counts for verification
	ExecuteCalls    int
	RestartCalls    int
	InitializeCalls int
}

// MockOption configures a MockNode.
type MockOption func(*MockNode)

// WithInputs declares input sockets of the given kinds.
func WithInputs(kinds ...flowdata.Kind) MockOption {
	return func(m *MockNode) {
		for i, k := range kinds {
			m.AddInput(fmt.Sprintf("in%d", i), k)
		}
	}
}

// WithOutputs declares output sockets of the given kinds.
func WithOutputs(kinds ...flowdata.Kind) MockOption {
	return func(m *MockNode) {
		for i, k := range kinds {
			m.AddOutput(fmt.Sprintf("out%d", i), k)
		}
	}
}

// WithFlags sets node flags.
func WithFlags(f node.Flags) MockOption {
	return func(m *MockNode) { m.SetFlags(f) }
}

// WithExecute sets the execute behavior.
func WithExecute(fn func(r node.SocketReader, w node.SocketWriter) node.Status) MockOption {
	return func(m *MockNode) { m.ExecuteFunc = fn }
}

// WithRestart sets the restart behavior.
func WithRestart(fn func() bool) MockOption {
	return func(m *MockNode) { m.RestartFunc = fn }
}

// WithModule names a compute module the node requires.
func WithModule(name string) MockOption {
	return func(m *MockNode) { m.SetModule(name) }
}

// NewMockNode creates a mock node. Without WithExecute it returns Ok and
// writes nothing.
func NewMockNode(opts ...MockOption) *MockNode {
	m := &MockNode{}
	m.AddProperty(property.BindInt("Value", &m.Value))
	m.SetDescription("Mock node for tests")
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MockFactory returns a factory producing fresh mock nodes.
func MockFactory(opts ...MockOption) node.Factory {
	return func() (node.Type, error) {
		return NewMockNode(opts...), nil
	}
}

// Execute implements node.Type.
func (m *MockNode) Execute(r node.SocketReader, w node.SocketWriter) node.Status {
	m.mu.Lock()
	m.ExecuteCalls++
	fn := m.ExecuteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(r, w)
	}
	return node.StatusOk()
}

// Restart implements node.Restarter.
func (m *MockNode) Restart() bool {
	m.mu.Lock()
	m.RestartCalls++
	fn := m.RestartFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return true
}

// Initialize implements node.Initializer.
func (m *MockNode) Initialize() bool {
	m.mu.Lock()
	m.InitializeCalls++
	fn := m.InitializeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return true
}

// Calls returns the execute, restart and initialize counts.
func (m *MockNode) Calls() (execute, restart, initialize int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls, m.RestartCalls, m.InitializeCalls
}

// ProduceArray returns an execute func writing a 1x1 array holding v to
// output 0.
func ProduceArray(v float64) func(node.SocketReader, node.SocketWriter) node.Status {
	return func(_ node.SocketReader, w node.SocketWriter) node.Status {
		a := flowdata.NewArray(1, 1)
		a.Set(0, 0, v)
		w.Acquire(0).SetArray(a)
		return node.StatusOk()
	}
}

// SumArrays returns an execute func that sums element (0,0) of every
// non-empty array input and writes the total to output 0. With no non-empty
// input it writes nothing.
func SumArrays() func(node.SocketReader, node.SocketWriter) node.Status {
	return func(r node.SocketReader, w node.SocketWriter) node.Status {
		total, seen := 0.0, false
		for i := 0; i < r.NumInputs(); i++ {
			v := r.Read(i)
			if v.IsEmpty() {
				continue
			}
			total += v.AsArray().At(0, 0)
			seen = true
		}
		if !seen {
			return node.StatusOk()
		}
		a := flowdata.NewArray(1, 1)
		a.Set(0, 0, total)
		w.Acquire(0).SetArray(a)
		return node.StatusOk()
	}
}

// MockModule is a compute module that counts initializations.
type MockModule struct {
	ModuleName string
	InitErr    error

	mu          sync.Mutex
	initialized bool
	InitCalls   int
}

// Name implements node.Module.
func (m *MockModule) Name() string { return m.ModuleName }

// EnsureInitialized implements node.Module. It initializes at most once.
func (m *MockModule) EnsureInitialized() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	m.InitCalls++
	if m.InitErr != nil {
		return m.InitErr
	}
	m.initialized = true
	return nil
}
