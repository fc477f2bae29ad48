package energy

import (
	"math"
	"slices"
	"sort"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// Potential names accepted by [NewPotential].
const (
	Spring          = "spring"
	Coulomb         = "coulomb"
	InverseDistance = "inverse_distance"
	LennardJones    = "lennard_jones"
)

// Potential is a pairwise interaction energy as a pure function of the
// distance between two centers.
type Potential interface {
	Name() string
	Energy(distance float64) (float64, error)
}

type potentialDef struct {
	params []string
	build  func(p []float64) (Potential, error)
}

var registry = map[string]potentialDef{
	Spring: {
		params: []string{"stiffness", "rest_length"},
		build: func(p []float64) (Potential, error) {
			return spring{k: p[0], rest: p[1]}, nil
		},
	},
	Coulomb: {
		params: []string{"strength"},
		build: func(p []float64) (Potential, error) {
			return coulomb{k: p[0]}, nil
		},
	},
	InverseDistance: {
		params: []string{"strength", "exponent"},
		build: func(p []float64) (Potential, error) {
			if p[1] <= 0 {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s exponent must be > 0, got %g", InverseDistance, p[1])
			}
			return inverseDistance{k: p[0], n: p[1]}, nil
		},
	},
	LennardJones: {
		params: []string{"epsilon", "sigma"},
		build: func(p []float64) (Potential, error) {
			if p[1] <= 0 {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s sigma must be > 0, got %g", LennardJones, p[1])
			}
			return lennardJones{eps: p[0], sigma: p[1]}, nil
		},
	},
}

// Names returns the registered potential names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Params returns the ordered parameter names of a potential.
func Params(name string) ([]string, bool) {
	def, ok := registry[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(def.params), true
}

// NewPotential builds the named potential from its positional parameters.
func NewPotential(name string, params []float64) (Potential, error) {
	def, ok := registry[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown potential %q (must be one of: %v)", name, Names())
	}
	if len(params) != len(def.params) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "potential %q takes %d parameters %v, got %d", name, len(def.params), def.params, len(params))
	}
	for i, v := range params {
		if err := errors.ValidateFinite(def.params[i], v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "potential %q", name)
		}
	}
	return def.build(params)
}

// spring is a harmonic well: k/2 (d - rest)².
type spring struct{ k, rest float64 }

func (spring) Name() string { return Spring }

func (s spring) Energy(d float64) (float64, error) {
	if err := checkDistance(Spring, d, false); err != nil {
		return 0, err
	}
	x := d - s.rest
	return 0.5 * s.k * x * x, nil
}

// coulomb is k / d.
type coulomb struct{ k float64 }

func (coulomb) Name() string { return Coulomb }

func (c coulomb) Energy(d float64) (float64, error) {
	if err := checkDistance(Coulomb, d, true); err != nil {
		return 0, err
	}
	return c.k / d, nil
}

// inverseDistance is k / dⁿ.
type inverseDistance struct{ k, n float64 }

func (inverseDistance) Name() string { return InverseDistance }

func (p inverseDistance) Energy(d float64) (float64, error) {
	if err := checkDistance(InverseDistance, d, true); err != nil {
		return 0, err
	}
	return p.k / math.Pow(d, p.n), nil
}

// lennardJones is 4ε[(σ/d)¹² - (σ/d)⁶].
type lennardJones struct{ eps, sigma float64 }

func (lennardJones) Name() string { return LennardJones }

func (p lennardJones) Energy(d float64) (float64, error) {
	if err := checkDistance(LennardJones, d, true); err != nil {
		return 0, err
	}
	s6 := math.Pow(p.sigma/d, 6)
	return 4 * p.eps * (s6*s6 - s6), nil
}

func checkDistance(name string, d float64, positive bool) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 || (positive && d == 0) {
		return errors.New(errors.ErrCodeNumericalDomain, "potential %q undefined at distance %g", name, d)
	}
	return nil
}
