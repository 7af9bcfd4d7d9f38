// Package registry maps hierarchical node type names such as
// "Filters/Threshold" to factories.
//
// Every registered name receives a TypeID that never changes meaning. TypeID 0
// is a permanent sentinel named "InvalidType". Registering an existing name
// replaces its factory and keeps its ID, so a plugin can supersede a built-in
// type without invalidating graphs that already refer to it.
//
// Built-in types are registered through an explicit bootstrap list passed to
// New with WithBootstrap; there is no init-time self registration.
//
//	reg, err := registry.New(
//	    registry.WithLogger(logger),
//	    registry.WithBootstrap(builtin.Register),
//	)
//
// Instance creation never propagates a panic from a factory. Failures are
// logged with the type name and returned as errors.ErrFactoryFailed.
package registry
