// Package property implements the typed configuration values attached to node
// instances.
//
// A Value is a closed variant over bool, int, float, enum, 3x3 matrix,
// filepath and string. Accessors return an error on a kind mismatch and never
// coerce; Convert performs the few explicit conversions that are allowed.
//
// Nodes expose their settings by binding Go variables:
//
//	props.Add(property.BindInt("Threshold", &n.threshold)).
//		WithRange(0, 255)
//	props.Add(property.BindEnum("Method", &n.method, "Binary", "Binary inverted"))
//
// The position of a property in its Set is the property ID used by the graph
// and by pipeline definitions.
package property
