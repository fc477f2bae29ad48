// Package density adapts voxelized cell-density volumes for placement.
//
// A [Field] is an axis-aligned regular grid of non-negative intensities
// (cells per mm³) with a voxel size and an origin offset, both expressed in
// µm. The field is immutable once constructed; placement runs read it
// through three operations:
//
//   - [Field.VoxelCountField]: expected cells per voxel and the rounded
//     total cell count of the region
//   - [Field.GroupByIntensity]: voxels sharing an intensity value, with the
//     rounded number of cells each group should receive
//   - [Field.InGeometry]: whether a world-space point falls inside the grid
//
// # Units
//
// Intensities are per mm³ while voxel volumes are in µm³, so every count
// is scaled by [UnitConversion] (1e-9). Counts are rounded half-to-even.
//
// # Example
//
//	f, err := density.Uniform([3]int{10, 10, 10}, [3]float64{25, 25, 25}, [3]float64{}, 14000)
//	if err != nil {
//	    return err
//	}
//	_, total := f.VoxelCountField()
//	for _, g := range f.GroupByIntensity() {
//	    fmt.Println(g.Intensity, len(g.Voxels), g.Count)
//	}
package density
