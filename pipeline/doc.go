// Package pipeline reads declarative graph definitions for the command line.
//
// A definition names node instances, their types and property values, and
// links written as "node/socket" pairs:
//
//	name: edges
//	nodes:
//	  - name: frames
//	    type: Sources/Image sequence
//	    properties:
//	      Directory: ./frames
//	  - name: gray
//	    type: Conversion/Gray
//	links:
//	  - from: frames/output
//	    to: gray/source
//
// JSON documents with the same shape are accepted. Property values are parsed
// by the property descriptor of the node, so enums may be given by label.
package pipeline
