// Package plume is a layered template generation engine: template roots
// that override one another, deterministic per-entity render contexts,
// needle injection into existing files and a concurrent render pipeline.
package plume

// Version is the plume release.
const Version = "0.3.0"
