// Package system ties the node type registry to the plugins that extend it.
//
// A NodeSystem creates the registry, runs the built-in bootstrap list and
// loads plugins. LoadPlugin deduplicates by absolute path and refuses any
// plugin whose LogicVersion differs from the host's:
//
//	sys, err := system.New(system.WithBootstrap(builtin.Register))
//	if err != nil {
//	    return err
//	}
//	added, err := sys.LoadPlugins("/usr/lib/nodeflow/plugins")
//
// Loading is expected at startup or from a plugin.Watcher callback; node
// creation through the registry is safe for concurrent use.
package system
