// Package io reads placement inputs and writes placement results.
//
// # Density volumes
//
// [ReadNRRD] loads a 3D atlas volume in NRRD format into a [density.Field].
// Supported header fields:
//
//   - type: uchar, char, short, ushort, int, uint, float, double and their
//     C spellings (e.g. "unsigned short", "int16")
//   - encoding: raw, gzip (gz)
//   - endian: little, big
//   - space directions: diagonal matrix, giving the voxel size
//   - spacings: used when space directions is absent
//   - space origin: world coordinates of the first voxel corner
//   - data file: detached data, resolved relative to the header
//
// [NRRDOptions] cap the voxel count before samples are allocated and can
// confine detached data files to the header's directory.
//
// The first axis varies fastest, matching the field's storage order.
//
// # Obstacles
//
// [ReadObstacles] loads fixed geometry (e.g. vasculature) from JSON:
//
//	{
//	  "spheres":  [{"center": [0, 0, 0], "radius": 4}],
//	  "segments": [{"start": [0, 0, 0], "end": [50, 0, 0],
//	                "start_radius": 3, "end_radius": 2}]
//	}
//
// Segments are converted to overlapping sphere chains. [Obstacles.Indexes]
// builds one static collision index per kind.
//
// # Results
//
// A [Placement] is written as JSON with [WriteJSON] (and read back with
// [ReadJSON]) or as x,y,z,radius rows with [WriteCSV]:
//
//	{
//	  "run_id": "3f0c…",
//	  "seed": 42,
//	  "positions": [[12.5, 40.1, 7.3], ...],
//	  "radii": [5.1, ...]
//	}
package io
