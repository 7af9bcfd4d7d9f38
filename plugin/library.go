package plugin

import (
	"fmt"
	goplugin "plugin"
	"sync"

	"github.com/c360/nodeflow/errors"
)

// Library is an opened shared library exposing named symbols.
type Library interface {
	Lookup(name string) (any, error)
	Close() error
}

// Opener opens libraries by path.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// GoOpener opens plugins built with -buildmode=plugin.
type GoOpener struct{}

// Open implements Opener.
func (GoOpener) Open(path string) (Library, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &goLibrary{p: p}, nil
}

// goLibrary wraps a Go plugin. The runtime cannot unload plugins, so Close
// only drops the reference and makes further lookups fail.
type goLibrary struct {
	mu sync.Mutex
	p  *goplugin.Plugin
}

func (l *goLibrary) Lookup(name string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.p == nil {
		return nil, fmt.Errorf("library closed")
	}
	sym, err := l.p.Lookup(name)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func (l *goLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.p = nil
	return nil
}

// lookupFunc resolves a symbol of function type F. Exported functions appear
// as F while exported function variables appear as *F; both are accepted.
func lookupFunc[F any](lib Library, name string) (F, error) {
	var zero F

	sym, err := lib.Lookup(name)
	if err != nil {
		return zero, errors.WrapFatal(
			fmt.Errorf("%w: %s: %w", errors.ErrSymbolNotFound, name, err),
			"plugin", "Load", "symbol lookup")
	}

	switch fn := sym.(type) {
	case F:
		return fn, nil
	case *F:
		if fn != nil {
			return *fn, nil
		}
	}
	return zero, errors.WrapFatal(
		fmt.Errorf("%w: %s has type %T", errors.ErrSymbolNotFound, name, sym),
		"plugin", "Load", "symbol type check")
}
