// Package graph holds node instances and the typed links between them.
//
// Nodes are created from a registry and named uniquely within the graph.
// Links connect one output socket to one input socket; an input accepts at
// most one link while outputs fan out. Connect refuses links between
// incompatible kinds and links that would close a cycle, so a graph is
// always acyclic.
//
// ExecutionOrder is a topological sort where ties go to the node added
// first. Every structural edit marks affected nodes dirty: a new link dirties
// its destination and everything downstream, removing a node dirties its
// direct consumers, and a property change dirties the node and its
// downstream. The execution engine consumes these flags together with
// restart requests for stateful nodes.
//
// Nodes can also be addressed by URI:
//
//	i://threshold/source      input socket
//	o://camera/output         output socket
//	p://threshold/Threshold   property
package graph
