package plugin

import (
	"fmt"
	"sync"

	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/registry"
)

// Entry point symbol names every plugin exports.
const (
	SymbolLogicVersion   = "LogicVersion"
	SymbolPluginVersion  = "PluginVersion"
	SymbolRegisterPlugin = "RegisterPlugin"
)

// Registrar is the registration surface handed to RegisterPlugin.
type Registrar = registry.Registrar

// Handle is a loaded plugin with its entry points resolved.
type Handle struct {
	path string
	lib  Library

	logicVersion  func() int
	pluginVersion func() int
	register      func(Registrar)

	closeOnce sync.Once
	closeErr  error
}

// Load opens the library at path and resolves its three entry points. On any
// failure the library is closed before returning. All failures are Fatal.
func Load(path string, opener Opener) (*Handle, error) {
	lib, err := opener.Open(path)
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %s: %w", errors.ErrPluginOpen, path, err),
			"plugin", "Load", "open library")
	}
	if lib == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %s: opener returned no library", errors.ErrPluginOpen, path),
			"plugin", "Load", "open library")
	}

	h := &Handle{path: path, lib: lib}

	if h.logicVersion, err = lookupFunc[func() int](lib, SymbolLogicVersion); err != nil {
		_ = lib.Close()
		return nil, err
	}
	if h.pluginVersion, err = lookupFunc[func() int](lib, SymbolPluginVersion); err != nil {
		_ = lib.Close()
		return nil, err
	}
	if h.register, err = lookupFunc[func(Registrar)](lib, SymbolRegisterPlugin); err != nil {
		_ = lib.Close()
		return nil, err
	}

	return h, nil
}

// Path returns the path the plugin was loaded from.
func (h *Handle) Path() string { return h.path }

// LogicVersion returns the host ABI version the plugin was built against.
func (h *Handle) LogicVersion() int { return h.logicVersion() }

// PluginVersion returns the plugin's own version.
func (h *Handle) PluginVersion() int { return h.pluginVersion() }

// Register runs the plugin's registration function. A panic inside the
// plugin is returned as a Fatal ErrPluginRegister. Types registered before the
// panic are left in place; the caller decides whether to roll them back.
func (h *Handle) Register(r Registrar) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.WrapFatal(
				fmt.Errorf("%w: %s panicked: %v", errors.ErrPluginRegister, h.path, rec),
				"Handle", "Register", "plugin registration")
		}
	}()

	h.register(r)
	return nil
}

// Close releases the library. It is safe to call more than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if err := h.lib.Close(); err != nil {
			h.closeErr = errors.WrapTransient(err, "Handle", "Close", "release library")
		}
	})
	return h.closeErr
}
