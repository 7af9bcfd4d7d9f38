// Package node defines the contract between the execution engine and the
// processing units it runs.
//
// A node type is any value implementing Type. It declares its sockets,
// properties, description and Flags through Config, and performs one bounded
// step of work per cycle in Execute, reading inputs from a SocketReader and
// acquiring outputs from a SocketWriter. Nodes signal failure through the
// returned Status rather than by returning errors or panicking.
//
// Optional behavior is expressed through small interfaces: Restarter for
// stateful nodes that can rewind, Initializer for one-off setup before a run,
// and ModuleConsumer for nodes that share a compute Module.
//
// By convention every node treats an empty input as a no-op and returns Ok
// without acquiring its outputs.
package node
