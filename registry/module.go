package registry

import (
	"fmt"
	"slices"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/node"
)

// RegisterModule makes a shared compute module available to node types that
// name it in their config. A second module with the same name is refused.
func (r *Registry) RegisterModule(m node.Module) error {
	if m == nil || m.Name() == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterModule", "module validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[m.Name()]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrModuleExists, m.Name()),
			"Registry", "RegisterModule", "duplicate module check")
	}
	r.modules[m.Name()] = m
	r.logger.Debug("node module registered", "module", m.Name())
	return nil
}

// Module returns the module registered under name.
func (r *Registry) Module(name string) (node.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	return m, ok
}

// Modules returns the sorted names of registered modules.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
