// Package placement places astrocyte somata in a density volume.
//
// # Overview
//
// A [Generator] draws candidate spheres voxel group by voxel group, keeps
// the ones that fall inside the volume and collide with nothing, and appends
// them to a [spatial.SpherePattern] until the field's total cell count is
// reached.
//
// Each candidate comes from a [Strategy] selected once when the generator is
// built:
//
//   - [FirstOrderStrategy]: density-weighted proposal with rejection. A voxel
//     is chosen from the group's categorical distribution, a position is drawn
//     uniformly inside it and a radius from the [RadiusSampler]; the draw is
//     retried until it is inside the geometry and clear of obstacles and of
//     earlier cells, or until the attempt cap is hit.
//   - [SecondOrderStrategy]: wraps a first-order strategy with a bounded
//     Metropolis search over independent proposals, biasing the pattern
//     towards low pairwise energy. It is used when the energy operator has
//     at least one pairwise potential.
//
// # Reproducibility
//
// All randomness comes from one *rand.Rand supplied by the caller. For every
// first-order attempt the draws happen in this order: voxel choice, x, y and
// z sub-voxel offsets, radius. The Metropolis coin of a refinement step is
// drawn after the proposal it judges. A fixed seed therefore reproduces the
// same pattern.
//
// # Example
//
//	rng := rand.New(rand.NewPCG(seed, seed))
//	radii, _ := placement.NewTruncatedNormal(5, 0.5, 4, 6, rng)
//	gen, err := placement.NewGenerator(field, rng, placement.Options{
//	    Radii:      radii,
//	    Energy:     op,
//	    Parameters: placement.Parameters{Beta: 1, NumberOfTrials: 3, CutoffRadius: 60},
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := gen.Run(ctx)
package placement
