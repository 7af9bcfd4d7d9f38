package testutil

import (
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/c360/nodeflow/plugin"
)

// FakeLibrary is an in-memory plugin library backed by a symbol map.
type FakeLibrary struct {
	mu            sync.Mutex
	Symbols       map[string]any
	closeCalls    int
	registerCalls int
}

// NewFakePlugin returns a library exporting the three plugin entry points.
// register may be nil.
func NewFakePlugin(logicVersion, pluginVersion int, register func(plugin.Registrar)) *FakeLibrary {
	lib := &FakeLibrary{}
	lib.Symbols = map[string]any{
		plugin.SymbolLogicVersion:  func() int { return logicVersion },
		plugin.SymbolPluginVersion: func() int { return pluginVersion },
		plugin.SymbolRegisterPlugin: func(r plugin.Registrar) {
			lib.mu.Lock()
			lib.registerCalls++
			lib.mu.Unlock()
			if register != nil {
				register(r)
			}
		},
	}
	return lib
}

// Lookup implements plugin.Library.
func (l *FakeLibrary) Lookup(name string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sym, ok := l.Symbols[name]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", name)
	}
	return sym, nil
}

// Close implements plugin.Library.
func (l *FakeLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeCalls++
	return nil
}

// CloseCalls returns how many times Close was called.
func (l *FakeLibrary) CloseCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeCalls
}

// RegisterCalls returns how many times RegisterPlugin ran.
func (l *FakeLibrary) RegisterCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registerCalls
}

// FakeOpener serves FakeLibrary values by path.
type FakeOpener struct {
	mu        sync.Mutex
	Libraries map[string]*FakeLibrary
	opens     []string
}

// NewFakeOpener creates an opener with no libraries.
func NewFakeOpener() *FakeOpener {
	return &FakeOpener{Libraries: make(map[string]*FakeLibrary)}
}

// Add makes lib available at path.
func (o *FakeOpener) Add(path string, lib *FakeLibrary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Libraries[path] = lib
}

// Open implements plugin.Opener.
func (o *FakeOpener) Open(path string) (plugin.Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opens = append(o.opens, path)
	lib, ok := o.Libraries[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return lib, nil
}

// Opens returns the paths passed to Open, in order.
func (o *FakeOpener) Opens() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opens...)
}

// MockLibrary is a testify mock of plugin.Library.
type MockLibrary struct {
	mock.Mock
}

// Lookup implements plugin.Library.
func (m *MockLibrary) Lookup(name string) (any, error) {
	args := m.Called(name)
	return args.Get(0), args.Error(1)
}

// Close implements plugin.Library.
func (m *MockLibrary) Close() error {
	return m.Called().Error(0)
}
