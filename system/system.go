package system

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/metric"
	"github.com/c360/nodeflow/plugin"
	"github.com/c360/nodeflow/registry"
)

// LogicVersion is the plugin ABI version of this host. A plugin reporting a
// different version is refused.
const LogicVersion = 3

// PluginInfo describes a loaded plugin.
type PluginInfo struct {
	Path    string `json:"path"`
	Version int    `json:"version"`
}

// NodeSystem owns the node type registry and the plugins that extend it.
// Plugin handles stay alive for the lifetime of the system.
type NodeSystem struct {
	reg     *registry.Registry
	opener  plugin.Opener
	logger  *slog.Logger
	metrics *metric.Metrics

	registryOpts []registry.Option

	mu      sync.Mutex
	plugins map[string]*plugin.Handle
	order   []string
}

// Option configures a NodeSystem.
type Option func(*NodeSystem)

// WithLogger sets the logger for the system and its registry.
func WithLogger(logger *slog.Logger) Option {
	return func(s *NodeSystem) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOpener replaces the library opener. Defaults to plugin.GoOpener.
func WithOpener(opener plugin.Opener) Option {
	return func(s *NodeSystem) {
		if opener != nil {
			s.opener = opener
		}
	}
}

// WithBootstrap registers built-in node types when the registry is created.
func WithBootstrap(funcs ...registry.RegisterFunc) Option {
	return func(s *NodeSystem) {
		s.registryOpts = append(s.registryOpts, registry.WithBootstrap(funcs...))
	}
}

// WithMetrics records registry and plugin metrics. A nil registry disables them.
func WithMetrics(mr *metric.MetricsRegistry) Option {
	return func(s *NodeSystem) {
		if mr != nil {
			s.metrics = mr.CoreMetrics()
		}
	}
}

// New creates a node system with a fresh registry.
func New(opts ...Option) (*NodeSystem, error) {
	s := &NodeSystem{
		opener:  plugin.GoOpener{},
		logger:  slog.Default(),
		plugins: make(map[string]*plugin.Handle),
	}
	for _, opt := range opts {
		opt(s)
	}

	reg, err := registry.New(append(s.registryOpts, registry.WithLogger(s.logger))...)
	if err != nil {
		return nil, errors.Wrap(err, "NodeSystem", "New", "registry bootstrap")
	}
	s.reg = reg
	s.recordCounts()
	return s, nil
}

// Registry returns the node type registry.
func (s *NodeSystem) Registry() *registry.Registry {
	return s.reg
}

// NewGraph creates an empty graph backed by the system's registry.
func (s *NodeSystem) NewGraph() *graph.Graph {
	return graph.New(s.reg, graph.WithLogger(s.logger))
}

// LoadPlugin loads the plugin at path and returns the number of node types it
// added. A path already loaded returns 0 without running the plugin's
// registration again. A plugin built for another LogicVersion is refused with
// a Fatal error and the registry is left unchanged. If the plugin's
// registration panics, everything it registered is rolled back before the
// handle is released.
func (s *NodeSystem) LoadPlugin(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, errors.WrapInvalid(err, "NodeSystem", "LoadPlugin", "resolve path")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, loaded := s.plugins[abs]; loaded {
		s.logger.Debug("plugin already loaded", "path", abs)
		return 0, nil
	}

	h, err := plugin.Load(abs, s.opener)
	if err != nil {
		return 0, s.loadFailed(abs, err)
	}

	if v := h.LogicVersion(); v != LogicVersion {
		_ = h.Close()
		return 0, s.loadFailed(abs, errors.WrapFatal(
			fmt.Errorf("%w: host %d, plugin %s built for %d", errors.ErrVersionMismatch, LogicVersion, abs, v),
			"NodeSystem", "LoadPlugin", "version check"))
	}

	before := s.reg.Len()
	cp := s.reg.Checkpoint()
	if err := h.Register(s.reg); err != nil {
		// Nothing the plugin registered may outlive its handle
		s.reg.Rollback(cp)
		_ = h.Close()
		return 0, s.loadFailed(abs, err)
	}
	added := s.reg.Len() - before

	s.plugins[abs] = h
	s.order = append(s.order, abs)

	s.logger.Info("plugin loaded",
		"path", abs, "version", h.PluginVersion(), "new_types", added, "types", s.reg.Len())
	s.recordCounts()
	return added, nil
}

func (s *NodeSystem) loadFailed(path string, err error) error {
	s.logger.Error("plugin load failed", "path", path, "error", err)
	if s.metrics != nil {
		s.metrics.RecordPluginError(errors.Classify(err).String())
	}
	return err
}

func (s *NodeSystem) recordCounts() {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordNodeTypes(s.reg.Len())
	s.metrics.RecordPluginsLoaded(len(s.plugins))
}

// LoadPlugins loads every plugin file in dir in lexical order. A failing
// plugin does not stop the others; all failures are joined into the returned
// error. The count is the total number of node types added.
func (s *NodeSystem) LoadPlugins(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.WrapInvalid(err, "NodeSystem", "LoadPlugins", "read plugin directory")
	}

	total := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != plugin.Extension {
			continue
		}
		n, err := s.LoadPlugin(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	return total, stderrors.Join(errs...)
}

// Plugins lists loaded plugins in load order.
func (s *NodeSystem) Plugins() []PluginInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PluginInfo, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, PluginInfo{Path: p, Version: s.plugins[p].PluginVersion()})
	}
	return out
}

// Close releases every plugin handle.
func (s *NodeSystem) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, p := range s.order {
		if err := s.plugins[p].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.plugins = make(map[string]*plugin.Handle)
	s.order = nil
	s.recordCounts()
	return stderrors.Join(errs...)
}
