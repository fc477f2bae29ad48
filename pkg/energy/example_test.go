package energy_test

import (
	"fmt"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
)

func ExampleOperator_SecondOrderEnergy() {
	// A spring with stiffness 2 resting at 10 µm.
	op, err := energy.NewOperator([]energy.Config{{Name: energy.Spring, Params: []float64{2, 10}}})
	if err != nil {
		panic(err)
	}
	for _, d := range []float64{10, 13} {
		e, _ := op.SecondOrderEnergy(d)
		fmt.Printf("E(%g) = %.1f\n", d, e)
	}
	// Output:
	// E(10) = 0.0
	// E(13) = 9.0
}
