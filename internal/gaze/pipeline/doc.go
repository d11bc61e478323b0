// Package pipeline runs the layered gaze analysis end to end.
//
// Assemble joins the raw exports onto the world-camera frame timeline (L1).
// Analyze then rectifies each frame (L2), classifies target zones (L3),
// segments trials (L4), computes metrics (L5) and summarizes them (L6).
// Only structural problems are returned as errors; data-quality issues end
// up in Result.Diagnostics next to the numbers they affect.
package pipeline
