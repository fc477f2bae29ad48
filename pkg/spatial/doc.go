// Package spatial provides the collision structures consulted while placing
// somata.
//
// Two kinds of index exist:
//
//   - [SpherePattern]: the growable, append-only store of accepted spheres.
//     Storage is a fixed-capacity arena; a sparse uniform grid maps cell
//     coordinates to arena slots so that every query reflects every earlier
//     insertion.
//   - [StaticIndex]: a read-only k-d tree over externally supplied obstacle
//     spheres (for instance vasculature discretised with [SegmentSpheres]).
//     It is built once and may be shared between independent runs.
//
// Placement consumes obstacles through the [Intersector] interface, so any
// other read-only geometry can be plugged in.
package spatial
