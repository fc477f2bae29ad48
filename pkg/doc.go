// Package pkg provides the libraries behind ngv, the astrocyte soma
// placement tool of the neuro-glia-vascular circuit builder.
//
// # Overview
//
// Given a voxelized cell-density atlas and a set of vasculature obstacles,
// ngv places non-overlapping spherical somata so that the number of cells in
// every region follows the atlas. A second-order pass spreads cells apart
// with a pairwise energy and a Metropolis acceptance rule.
//
// # Architecture
//
// The typical data flow:
//
//	NRRD density atlas + obstacle JSON
//	         ↓
//	    [io] package (read volumes and obstacles)
//	         ↓
//	    [density] package (voxel counts, intensity groups)
//	         ↓
//	    [placement] package (generator, strategies, radius sampler)
//	       ↙      ↘
//	[spatial]    [energy]
//	         ↓
//	    JSON/CSV cell table
//
// # Quick Start
//
//	import (
//	    "math/rand/v2"
//
//	    "github.com/BlueBrain/ArchNGV-sub001/pkg/density"
//	    "github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
//	    "github.com/BlueBrain/ArchNGV-sub001/pkg/placement"
//	)
//
//	field, _ := density.Uniform([3]int{4, 4, 4}, [3]float64{25, 25, 25}, [3]float64{}, 14000)
//	rng := rand.New(rand.NewPCG(42, 42))
//	radii, _ := placement.NewTruncatedNormal(5.6, 0.74, 4.45, 8.0, rng)
//	op, _ := energy.NewOperator([]energy.Config{{Name: energy.Spring, Params: []float64{0.1, 30}}})
//
//	gen, _ := placement.NewGenerator(field, rng, placement.Options{
//	    Radii:      radii,
//	    Energy:     op,
//	    Parameters: placement.Parameters{Beta: 0.01, NumberOfTrials: 3, CutoffRadius: 60, InitialSampleSize: 1000},
//	})
//	res, _ := gen.Run(ctx)
//
// # Main Packages
//
// ## Placement Core
//
// [density] - Voxel grid of cell densities in cells/mm³: expected counts per
// voxel, containment checks and grouping of voxels by intensity.
//
// [spatial] - The growing sphere pattern with a uniform-grid neighbour index,
// and a k-d tree index over static obstacles.
//
// [energy] - Pairwise potentials (spring, coulomb, inverse distance,
// Lennard-Jones) and the operator summing them within a cutoff.
//
// [placement] - The generator filling each intensity group, the first-order
// and second-order strategies, the truncated normal radius sampler and
// pattern statistics.
//
// ## Inputs and Outputs
//
// [io] - NRRD volume reader and writer, obstacle JSON and the JSON/CSV cell
// table exporters.
//
// [config] - TOML recipes describing one run.
//
// ## Infrastructure
//
// [pipeline] - Load → place → export with result caching. Used by both the
// CLI and the HTTP API.
//
// [cache] - Result caches: local files, Redis and MongoDB, keyed by content
// hashes of the inputs.
//
// [observability] - Hooks for placement, cache and HTTP events. The binary
// registers Prometheus implementations.
//
// [errors] - Coded errors shared by every package.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/placement/...          # Specific package
//	go test -run Example                 # Examples only
//
// [density]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/density
// [spatial]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/spatial
// [energy]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/energy
// [placement]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/placement
// [io]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/io
// [config]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/config
// [pipeline]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/cache
// [observability]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/observability
// [errors]: https://pkg.go.dev/github.com/BlueBrain/ArchNGV-sub001/pkg/errors
package pkg
