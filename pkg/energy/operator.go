// Package energy evaluates the pairwise interaction energy used to refine
// soma placement.
//
// An [Operator] is configured from named potentials ("spring", "coulomb",
// "inverse_distance", "lennard_jones") and sums them at a given distance.
// First-order (density) bias is not an energy term here: it enters
// placement only through the density-weighted proposal distribution.
//
//	op, err := energy.NewOperator([]energy.Config{
//	    {Name: "coulomb", Params: []float64{1}},
//	})
//	if op.HasSecondOrderPotentials() {
//	    e, err := op.SecondOrderEnergy(12.5)
//	}
package energy

import (
	"math"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// Config names one potential and its positional parameters.
type Config struct {
	Name   string    `toml:"name" json:"name"`
	Params []float64 `toml:"params" json:"params"`
}

// Operator sums a fixed set of pairwise potentials.
type Operator struct {
	potentials []Potential
}

// NewOperator builds an operator. An empty configuration is valid and
// yields an operator without second-order potentials.
func NewOperator(configs []Config) (*Operator, error) {
	op := &Operator{potentials: make([]Potential, 0, len(configs))}
	for i, c := range configs {
		p, err := NewPotential(c.Name, c.Params)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "potentials[%d]", i)
		}
		op.potentials = append(op.potentials, p)
	}
	return op, nil
}

// HasSecondOrderPotentials reports whether at least one pairwise potential
// is configured.
func (o *Operator) HasSecondOrderPotentials() bool {
	return o != nil && len(o.potentials) > 0
}

// Potentials returns the configured potential names in order.
func (o *Operator) Potentials() []string {
	names := make([]string, len(o.potentials))
	for i, p := range o.potentials {
		names[i] = p.Name()
	}
	return names
}

// SecondOrderEnergy returns the sum of all potentials at distance. A
// potential evaluated outside its domain, or a non-finite sum, is an
// ErrCodeNumericalDomain error.
func (o *Operator) SecondOrderEnergy(distance float64) (float64, error) {
	total := 0.0
	for _, p := range o.potentials {
		e, err := p.Energy(distance)
		if err != nil {
			return 0, err
		}
		total += e
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, errors.New(errors.ErrCodeNumericalDomain, "energy at distance %g is not finite", distance)
	}
	return total, nil
}
