// Package engine evaluates a node graph.
//
// Each cycle walks the graph in topological order. For every node the engine
// gathers the current values of its connected inputs, calls Execute with a
// reader and a lazily allocating writer, and keeps the outputs the node
// acquired. A node that returns an Error status keeps its previous outputs and
// its consumers see those.
//
// Stateful nodes with a pending restart request are restarted before they
// execute. With WithSkipClean, nodes that are not dirty are skipped; a node
// that executes marks its consumers dirty, and nodes that return a Tag status
// or carry FlagAutoTag stay dirty for the next cycle.
//
// Every cycle produces a CycleReport. A Publisher, such as NATSPublisher,
// receives each report once the cycle finishes.
//
//	eng := engine.New(g,
//		engine.WithSkipClean(true),
//		engine.WithPublisher(engine.NewNATSPublisher(nc, "nodeflow.status", nil)),
//	)
//	if err := eng.Run(ctx, 30, 0); err != nil {
//		return err
//	}
package engine
