// Package plugin loads node-type plugins.
//
// A plugin is a shared library exporting three entry points:
//
//	LogicVersion   func() int         host ABI version it was built against
//	PluginVersion  func() int         the plugin's own version
//	RegisterPlugin func(Registrar)    registers node types and modules
//
// Each may be exported as a function or as a function variable. Load opens a
// library through an Opener, resolves all three and returns a Handle; any
// failure closes the library and is reported as a Fatal error.
//
// GoOpener loads plugins built with "go build -buildmode=plugin". The Go
// runtime never unloads a plugin, so closing a handle only drops the
// reference. Version checking and deduplication live in the system package.
//
// Watcher uses fsnotify to report plugin files that appear in a directory
// while the host is running.
package plugin
