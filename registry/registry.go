package registry

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/node"
)

// TypeID is a stable handle to a registered node type.
type TypeID uint32

// InvalidTypeID is reserved for the sentinel entry at index 0.
const InvalidTypeID TypeID = 0

const invalidTypeName = "InvalidType"

// Origin records how a type entered the registry.
type Origin int

const (
	// OriginBuiltin marks types registered by the bootstrap list.
	OriginBuiltin Origin = iota
	// OriginPlugin marks types registered by plugins or manual calls.
	OriginPlugin
)

// String returns the origin name.
func (o Origin) String() string {
	if o == OriginBuiltin {
		return "builtin"
	}
	return "plugin"
}

// Entry describes one registered type.
type Entry struct {
	ID     TypeID
	Name   string
	Origin Origin

	factory node.Factory
}

// Registrar is the registration surface handed to bootstrap functions and
// plugins.
type Registrar interface {
	Register(name string, f node.Factory) TypeID
	RegisterModule(m node.Module) error
}

// RegisterFunc registers a group of node types. Each package with built-in
// node types exposes one.
type RegisterFunc func(Registrar) error

// Registry maps hierarchical type names to factories.
// Mutation is expected during startup and plugin loading only; lookups and
// instance creation are safe for concurrent use.
type Registry struct {
	entries []Entry
	byName  map[string]TypeID
	modules map[string]node.Module
	logger  *slog.Logger

	bootstrap     []RegisterFunc
	bootstrapping bool
	mu            sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBootstrap adds registration functions that run once during New. Types
// they register are tagged OriginBuiltin.
func WithBootstrap(funcs ...RegisterFunc) Option {
	return func(r *Registry) {
		r.bootstrap = append(r.bootstrap, funcs...)
	}
}

// New creates a registry containing the invalid sentinel and everything the
// bootstrap functions register.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		entries: []Entry{{ID: InvalidTypeID, Name: invalidTypeName, Origin: OriginBuiltin}},
		byName:  make(map[string]TypeID),
		modules: make(map[string]node.Module),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.bootstrapping = true
	defer func() { r.bootstrapping = false }()

	for i, register := range r.bootstrap {
		if err := register(r); err != nil {
			return nil, errors.WrapInvalid(err, "Registry", "New",
				fmt.Sprintf("bootstrap registration %d", i))
		}
	}

	r.logger.Debug("node type registry ready", "types", r.Len(), "modules", len(r.modules))
	return r, nil
}

// Register adds a node type. A new name gets a fresh TypeID. An existing name
// keeps its TypeID and the factory is replaced, which lets plugins supersede
// built-in types. An empty name or nil factory is rejected with InvalidTypeID.
func (r *Registry) Register(name string, f node.Factory) TypeID {
	if name == "" || f == nil {
		r.logger.Warn("rejected node type registration", "type", name, "nil_factory", f == nil)
		return InvalidTypeID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	origin := OriginPlugin
	if r.bootstrapping {
		origin = OriginBuiltin
	}

	if id, exists := r.byName[name]; exists {
		prev := r.entries[id].Origin
		r.entries[id].factory = f
		r.entries[id].Origin = origin
		r.logger.Info("node type overridden",
			"type", name, "id", id, "previous_origin", prev.String(), "origin", origin.String())
		return id
	}

	id := TypeID(len(r.entries))
	r.entries = append(r.entries, Entry{ID: id, Name: name, Origin: origin, factory: f})
	r.byName[name] = id
	return id
}

// Checkpoint is a copy of the registry contents taken by Checkpoint.
type Checkpoint struct {
	entries []Entry
	modules []string
}

// Checkpoint captures the registered types, their factories and the module
// names so that a failed plugin registration can be undone with Rollback.
func (r *Registry) Checkpoint() Checkpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := Checkpoint{entries: slices.Clone(r.entries)}
	for name := range r.modules {
		cp.modules = append(cp.modules, name)
	}
	return cp
}

// Rollback restores the state captured by cp. Types added since are removed,
// overridden factories and origins are restored and modules registered since
// are dropped. TypeIDs handed out before cp keep their meaning.
func (r *Registry) Rollback(cp Checkpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(cp.entries) == 0 || len(cp.entries) > len(r.entries) {
		return
	}
	removed := r.entries[len(cp.entries):]
	for _, e := range removed {
		delete(r.byName, e.Name)
	}
	r.entries = slices.Clone(cp.entries)

	for name := range r.modules {
		if !slices.Contains(cp.modules, name) {
			delete(r.modules, name)
		}
	}
	r.logger.Info("node type registry rolled back", "removed_types", len(removed), "types", len(r.entries)-1)
}

func (r *Registry) entry(id TypeID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == InvalidTypeID || int(id) >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[id], true
}

// Create instantiates a node of the given type. Unknown IDs return
// ErrUnknownType. A factory that fails or panics is logged with the type name
// and reported as ErrFactoryFailed; the registry remains usable.
func (r *Registry) Create(id TypeID) (n node.Type, err error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: id %d", errors.ErrUnknownType, id),
			"Registry", "Create", "type lookup")
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("node factory panicked", "type", e.Name, "panic", rec)
			n = nil
			err = errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", errors.ErrFactoryFailed, e.Name, rec),
				"Registry", "Create", "factory call")
		}
	}()

	n, err = e.factory()
	if err == nil && n == nil {
		err = fmt.Errorf("factory returned no instance")
	}
	if err != nil {
		r.logger.Error("node factory failed", "type", e.Name, "error", err)
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s: %w", errors.ErrFactoryFailed, e.Name, err),
			"Registry", "Create", "factory call")
	}

	if err := r.attachModule(e.Name, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Registry) attachModule(typeName string, n node.Type) error {
	moduleName := n.Config().Module
	if moduleName == "" {
		return nil
	}

	m, ok := r.Module(moduleName)
	if !ok {
		r.logger.Error("node requires missing module", "type", typeName, "module", moduleName)
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s required by %s", errors.ErrModuleMissing, moduleName, typeName),
			"Registry", "Create", "module lookup")
	}
	if err := m.EnsureInitialized(); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: module %s: %w", errors.ErrFactoryFailed, moduleName, err),
			"Registry", "Create", "module initialization")
	}
	if consumer, ok := n.(node.ModuleConsumer); ok {
		if err := consumer.InitModule(m); err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s: %w", errors.ErrFactoryFailed, typeName, err),
				"Registry", "Create", "module binding")
		}
	}
	return nil
}

// Describe returns the configuration of a type by creating a temporary
// instance.
func (r *Registry) Describe(id TypeID) (node.Config, error) {
	n, err := r.Create(id)
	if err != nil {
		return node.Config{}, errors.Wrap(err, "Registry", "Describe", "temporary instance")
	}
	return n.Config(), nil
}

// TypeName returns the name of a type, the sentinel name for InvalidTypeID
// and "" for IDs that were never issued.
func (r *Registry) TypeName(id TypeID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.entries) {
		return ""
	}
	return r.entries[id].Name
}

// TypeID returns the ID registered for name, or InvalidTypeID.
func (r *Registry) TypeID(name string) TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byName[name]
}

// Origin returns how the type was registered.
func (r *Registry) Origin(id TypeID) (Origin, bool) {
	e, ok := r.entry(id)
	return e.Origin, ok
}

// DefaultInstanceName returns the last path segment of the type name, e.g.
// "Gray" for "Conversion/Gray".
func (r *Registry) DefaultInstanceName(id TypeID) string {
	return DefaultNodeName(r.TypeName(id))
}

// DefaultNodeName returns the text after the final '/'.
func DefaultNodeName(typeName string) string {
	if i := strings.LastIndexByte(typeName, '/'); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

// Len returns the number of registered types, excluding the sentinel.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries) - 1
}

// Types iterates registered types in ID order, skipping the sentinel. The
// sequence is a snapshot taken when iteration starts and may be ranged over
// any number of times.
func (r *Registry) Types() iter.Seq2[TypeID, string] {
	return func(yield func(TypeID, string) bool) {
		for _, e := range r.Entries() {
			if !yield(e.ID, e.Name) {
				return
			}
		}
	}
}

// Entries returns a snapshot of all registered types, excluding the sentinel.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries)-1)
	copy(out, r.entries[1:])
	return out
}
