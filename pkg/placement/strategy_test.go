package placement

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// scripted replays a fixed list of candidates.
type scripted struct {
	cands []Candidate
	calls int
}

func (s *scripted) Propose(*spatial.SpherePattern, *VoxelSampler) (Candidate, error) {
	c := s.cands[s.calls%len(s.cands)]
	s.calls++
	return c, nil
}

type energyFunc func(float64) (float64, error)

func (f energyFunc) SecondOrderEnergy(d float64) (float64, error) { return f(d) }

// trippedEnergy records whether it was ever evaluated.
type trippedEnergy struct{ called int }

func (e *trippedEnergy) SecondOrderEnergy(float64) (float64, error) {
	e.called++
	return math.Inf(1), nil
}

func at(x float64) Candidate { return Candidate{Position: r3.Vector{X: x}, Radius: 1} }

func singleSphere() *spatial.SpherePattern {
	p := spatial.NewSpherePattern(4, 10)
	p.Add(r3.Vector{}, 1)
	return p
}

func TestSecondOrderBurnIn(t *testing.T) {
	e := &trippedEnergy{}
	first := &scripted{cands: []Candidate{at(3), at(4), at(5)}}
	s := &SecondOrderStrategy{
		First:  first,
		Energy: e,
		Params: Parameters{Beta: 1, NumberOfTrials: 5, CutoffRadius: 100, InitialSampleSize: 3},
		Rand:   rand.New(rand.NewPCG(1, 1)),
	}

	p := spatial.NewSpherePattern(3, 10)
	for i := range 3 {
		c, err := s.Propose(p, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c != first.cands[i] {
			t.Errorf("proposal %d = %v, want %v", i, c, first.cands[i])
		}
		p.Add(c.Position, c.Radius)
	}
	if e.called != 0 {
		t.Errorf("energy evaluated %d times during burn-in, want 0", e.called)
	}
	if first.calls != 3 {
		t.Errorf("first-order proposals = %d, want 3", first.calls)
	}
}

func TestSecondOrderCutoffShortCircuit(t *testing.T) {
	e := &trippedEnergy{}
	far := at(500)
	s := &SecondOrderStrategy{
		First:  &scripted{cands: []Candidate{far}},
		Energy: e,
		Params: Parameters{Beta: 1, NumberOfTrials: 5, CutoffRadius: 50, InitialSampleSize: 1},
		Rand:   rand.New(rand.NewPCG(1, 1)),
	}

	c, err := s.Propose(singleSphere(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if c != far {
		t.Errorf("Propose() = %v, want %v", c, far)
	}
	if e.called != 0 {
		t.Errorf("energy evaluated %d times, want 0", e.called)
	}
}

func TestSecondOrderTrialEscapesCutoff(t *testing.T) {
	e := &trippedEnergy{}
	near, far := at(5), at(500)
	first := &scripted{cands: []Candidate{near, far, near}}
	s := &SecondOrderStrategy{
		First:  first,
		Energy: e,
		Params: Parameters{Beta: 1, NumberOfTrials: 10, CutoffRadius: 50, InitialSampleSize: 1},
		Rand:   rand.New(rand.NewPCG(1, 1)),
	}

	c, err := s.Propose(singleSphere(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if c != far {
		t.Errorf("Propose() = %v, want %v", c, far)
	}
	if first.calls != 2 {
		t.Errorf("first-order proposals = %d, want 2", first.calls)
	}
	if e.called != 1 {
		t.Errorf("energy evaluations = %d, want 1", e.called)
	}
}

func TestSecondOrderPicksLowerEnergy(t *testing.T) {
	// 100/d: the candidate farther from the sphere at the origin has the
	// lower energy.
	inverse := energyFunc(func(d float64) (float64, error) { return 100 / d, nil })
	near, far := at(5), at(8)

	tests := []struct {
		name  string
		order []Candidate
	}{
		{"lower first", []Candidate{far, near}},
		{"lower second", []Candidate{near, far}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SecondOrderStrategy{
				First:  &scripted{cands: tt.order},
				Energy: inverse,
				Params: Parameters{Beta: math.Inf(1), NumberOfTrials: 1, CutoffRadius: 50, InitialSampleSize: 1},
				Rand:   rand.New(rand.NewPCG(7, 7)),
			}
			c, err := s.Propose(singleSphere(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if c != far {
				t.Errorf("Propose() = %v, want %v", c, far)
			}
		})
	}
}

func TestSecondOrderPropagatesEnergyError(t *testing.T) {
	op, err := energy.NewOperator([]energy.Config{{Name: energy.Coulomb, Params: []float64{1}}})
	if err != nil {
		t.Fatal(err)
	}
	s := &SecondOrderStrategy{
		First:  &scripted{cands: []Candidate{at(0)}},
		Energy: op,
		Params: Parameters{Beta: 1, NumberOfTrials: 1, CutoffRadius: 50, InitialSampleSize: 1},
		Rand:   rand.New(rand.NewPCG(1, 1)),
	}
	if _, err := s.Propose(singleSphere(), nil); err == nil {
		t.Error("expected numerical domain error at zero distance")
	}
}

func TestNewStrategy(t *testing.T) {
	first := &FirstOrderStrategy{}
	rng := rand.New(rand.NewPCG(1, 1))

	if got := NewStrategy(first, nil, Parameters{}, rng); got != Strategy(first) {
		t.Errorf("NewStrategy(nil operator) = %T, want *FirstOrderStrategy", got)
	}

	op, err := energy.NewOperator([]energy.Config{{Name: energy.Spring, Params: []float64{1, 10}}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := NewStrategy(first, op, Parameters{Beta: 1}, rng).(*SecondOrderStrategy); !ok {
		t.Error("NewStrategy with a pairwise potential should be second-order")
	}
}

func TestRejections(t *testing.T) {
	var r Rejections
	r.add(ReasonOutside)
	r.add(ReasonOverlap)
	r.add(ReasonOverlap)
	if r.Outside != 1 || r.Overlap != 2 || r.Obstacle != 0 {
		t.Errorf("Rejections = %+v", r)
	}
	if r.Total() != 3 {
		t.Errorf("Total() = %d, want 3", r.Total())
	}
}
