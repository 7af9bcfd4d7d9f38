// Package nodeflow is a framework for building and executing node-based
// computation graphs, with image processing as its built-in domain.
//
// # Architecture
//
// A pipeline is a directed acyclic graph of nodes. Each node is an instance of
// a registered node type that declares typed input and output sockets and a
// set of editable properties. The engine evaluates the graph once per cycle in
// topological order, moving values from output sockets to the inputs linked
// to them.
//
//	┌─────────────────────────────────────┐
//	│          Engine                     │  Cycles, dirty tracking,
//	│  (run, report, publish)             │  status and latency
//	└─────────────────────────────────────┘
//	           ↓ evaluates
//	┌─────────────────────────────────────┐
//	│          Graph                      │  Nodes, links, ordering,
//	│  (add, link, resolve, analyze)      │  cycle rejection
//	└─────────────────────────────────────┘
//	           ↓ instantiates from
//	┌─────────────────────────────────────┐
//	│          Registry                   │  Built-in types and
//	│  (register, create, describe)       │  plugin-provided types
//	└─────────────────────────────────────┘
//
// # Plugins
//
// Node types can be added at runtime from Go plugins. A plugin exports a
// logic version and a registration function; the loader refuses plugins built
// against a different logic version and keeps the rest of the system running.
// The plugin watcher loads plugins dropped into a directory while a pipeline
// runs.
//
// # Framework Packages
//
// Data model:
//   - flowdata: Socket kinds and the values carried between sockets
//   - property: Editable node properties and their value kinds
//   - node: The node type contract, configuration and execution status
//
// Composition:
//   - registry: Node type registration and instantiation
//   - plugin: Plugin loading, version checks and directory watching
//   - system: Registry, plugins and graphs wired together
//   - graph: Nodes, links and execution order
//   - pipeline: YAML and JSON pipeline definitions built into graphs
//
// Execution:
//   - engine: Cycle execution, reports and report publishers
//   - builtin: Built-in image sources, filters, features and sinks
//
// Infrastructure:
//   - config: Layered configuration with environment overrides
//   - errors: Classified errors (invalid, transient, fatal)
//   - health: Component health tracking and the health endpoint
//   - metric: Prometheus metrics and the metrics server
//   - natsclient: NATS connection used to publish cycle reports
//   - pkg/buffer: Bounded ring buffer for latency history
//
// # Command
//
// cmd/nodeflow runs pipelines, lists node types and validates configuration
// and pipeline files.
package nodeflow
