// Package export renders simulation results to files.
//
// Stationary states go to a PNG chart, sampled density frames to an animated
// GIF, and single frames to SVG. Renderers pull frames by index from
// dynamo.Frames and never touch simulation state, so frames are rasterised
// concurrently.
package export
