// Package flowdata defines the values that flow between node sockets.
//
// A Value is a tagged union over host images (mono or color), keypoint sets,
// numeric arrays and device resident images. Reading or writing a Value as the
// wrong kind is a programming error and panics with a *KindError; the graph
// checks kinds with Compatible when sockets are linked, so a correctly declared
// node never observes a mismatch at run time.
//
// Empty values are a normal condition: an unconnected input or an upstream node
// that has not produced anything yet reads as an empty Value, and nodes treat
// that as a no-op.
package flowdata
