package density_test

import (
	"fmt"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/density"
)

func ExampleField_GroupByIntensity() {
	// Two 100 µm voxels (1e-3 mm³ each) at 2000 and 5000 cells/mm³.
	field, err := density.NewField([]float64{2000, 5000}, [3]int{2, 1, 1}, [3]float64{100, 100, 100}, [3]float64{})
	if err != nil {
		panic(err)
	}
	fmt.Println("total:", field.TotalCount())
	for _, g := range field.GroupByIntensity() {
		fmt.Printf("intensity %g: %d cells in %d voxel(s)\n", g.Intensity, g.Count, len(g.Voxels))
	}
	// Output:
	// total: 7
	// intensity 2000: 2 cells in 1 voxel(s)
	// intensity 5000: 5 cells in 1 voxel(s)
}
