// Package builtin provides the node types that ship with nodeflow.
//
// Register adds them to a registry and is meant to be passed to
// registry.WithBootstrap, which tags them as built-in so plugins may
// supersede any of them by registering the same name.
//
//	Sources/Test pattern     synthetic color image
//	Sources/Image from file  image loaded every cycle
//	Sources/Image sequence   directory of frames, one per cycle
//	Conversion/Gray          any image to mono
//	Filters/Threshold        fixed-level binarization
//	Features/Corners         Shi-Tomasi corner detector
//	Features/Retain best     strongest keypoints
//	Analysis/Statistics      intensity min, max, mean and stddev
//	Sinks/Image writer       PNG or JPEG files
//
// Images are processed with the standard image packages.
package builtin
