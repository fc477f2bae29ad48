package placement

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/density"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// Candidate is a proposed soma.
type Candidate struct {
	Position r3.Vector
	Radius   float64
}

// Geometry answers whether a point lies inside the placement domain.
type Geometry interface {
	InGeometry(p r3.Vector) bool
}

// Energy evaluates the pairwise energy at a neighbour distance.
type Energy interface {
	SecondOrderEnergy(distance float64) (float64, error)
}

// Reason names why a candidate was rejected.
type Reason string

// Rejection reasons, cheapest test first.
const (
	ReasonOutside  Reason = "outside"
	ReasonObstacle Reason = "obstacle"
	ReasonOverlap  Reason = "overlap"
)

// Rejections counts rejected first-order draws by reason.
type Rejections struct {
	Outside  int `json:"outside"`
	Obstacle int `json:"obstacle"`
	Overlap  int `json:"overlap"`
}

// Total returns the number of rejected draws.
func (r Rejections) Total() int { return r.Outside + r.Obstacle + r.Overlap }

func (r *Rejections) add(reason Reason) {
	switch reason {
	case ReasonOutside:
		r.Outside++
	case ReasonObstacle:
		r.Obstacle++
	case ReasonOverlap:
		r.Overlap++
	}
}

// VoxelSampler draws positions inside the voxels of one group, choosing
// voxels with probability proportional to the group's weights.
type VoxelSampler struct {
	field  *density.Field
	group  *density.VoxelGroup
	choice distuv.Categorical
	rng    *rand.Rand
}

// NewVoxelSampler binds a group of field to rng.
func NewVoxelSampler(field *density.Field, group *density.VoxelGroup, rng *rand.Rand) *VoxelSampler {
	return &VoxelSampler{
		field:  field,
		group:  group,
		choice: distuv.NewCategorical(group.Weights, rng),
		rng:    rng,
	}
}

// Group returns the sampled group.
func (s *VoxelSampler) Group() *density.VoxelGroup { return s.group }

// Sample draws a voxel, then a uniform offset inside it.
func (s *VoxelSampler) Sample() r3.Vector {
	idx := s.group.Voxels[int(s.choice.Rand())]
	size := s.field.VoxelSize()
	corner := s.field.VoxelCorner(idx)
	return r3.Vector{
		X: corner.X + s.rng.Float64()*size.X,
		Y: corner.Y + s.rng.Float64()*size.Y,
		Z: corner.Z + s.rng.Float64()*size.Z,
	}
}

// Strategy proposes the next soma to append to pattern.
type Strategy interface {
	Propose(pattern *spatial.SpherePattern, voxels *VoxelSampler) (Candidate, error)
}

// FirstOrderStrategy draws candidates until one is inside the geometry and
// collides with neither obstacles nor earlier cells.
type FirstOrderStrategy struct {
	Geometry    Geometry
	Obstacles   []spatial.Intersector
	Radii       RadiusSampler
	MaxAttempts int

	// Rejections accumulates across calls when non-nil.
	Rejections *Rejections
	// OnReject is called for every rejected draw when non-nil.
	OnReject func(Reason)
}

// Propose returns the first valid candidate, or an ErrCodeExhausted error
// once MaxAttempts draws have been rejected.
func (s *FirstOrderStrategy) Propose(pattern *spatial.SpherePattern, voxels *VoxelSampler) (Candidate, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for range attempts {
		c := Candidate{Position: voxels.Sample()}
		c.Radius = s.Radii.Sample()

		reason, ok := s.check(pattern, c)
		if ok {
			return c, nil
		}
		if s.Rejections != nil {
			s.Rejections.add(reason)
		}
		if s.OnReject != nil {
			s.OnReject(reason)
		}
	}
	return Candidate{}, errors.New(errors.ErrCodeExhausted,
		"no valid position after %d attempts (group intensity %g, %d cells placed); density too high for the available space",
		attempts, voxels.Group().Intensity, pattern.Len())
}

func (s *FirstOrderStrategy) check(pattern *spatial.SpherePattern, c Candidate) (Reason, bool) {
	if s.Geometry != nil && !s.Geometry.InGeometry(c.Position) {
		return ReasonOutside, false
	}
	for _, o := range s.Obstacles {
		if o.SphereIntersects(c.Position, c.Radius) {
			return ReasonObstacle, false
		}
	}
	if pattern.IsIntersecting(c.Position, c.Radius) {
		return ReasonOverlap, false
	}
	return "", true
}

// SecondOrderStrategy refines first-order proposals with a bounded
// independent-sampler Metropolis search on the nearest-neighbour energy.
// Density bias comes only from the proposals; the acceptance ratio uses
// the pairwise energy alone.
type SecondOrderStrategy struct {
	First  Strategy
	Energy Energy
	Params Parameters
	Rand   *rand.Rand
}

// Propose returns a first-order candidate unchanged while the pattern holds
// fewer than InitialSampleSize cells or when the candidate has no neighbour
// within CutoffRadius. Otherwise it draws up to NumberOfTrials fresh
// candidates, stopping at the first that escapes the cutoff, and returns
// the lowest-energy candidate seen.
func (s *SecondOrderStrategy) Propose(pattern *spatial.SpherePattern, voxels *VoxelSampler) (Candidate, error) {
	current, err := s.First.Propose(pattern, voxels)
	if err != nil {
		return Candidate{}, err
	}
	if pattern.Len() < s.Params.InitialSampleSize {
		return current, nil
	}

	cutoff := s.Params.CutoffRadius
	d := pattern.DistanceToNearestNeighbor(current.Position, cutoff)
	if d > cutoff {
		return current, nil
	}
	currentEnergy, err := s.Energy.SecondOrderEnergy(d)
	if err != nil {
		return Candidate{}, err
	}

	best, bestEnergy := current, currentEnergy
	for range s.Params.NumberOfTrials {
		next, err := s.First.Propose(pattern, voxels)
		if err != nil {
			return Candidate{}, err
		}
		d := pattern.DistanceToNearestNeighbor(next.Position, cutoff)
		if d > cutoff {
			return next, nil
		}
		nextEnergy, err := s.Energy.SecondOrderEnergy(d)
		if err != nil {
			return Candidate{}, err
		}

		if math.Log(s.Rand.Float64()) < math.Min(0, s.Params.Beta*(currentEnergy-nextEnergy)) {
			current, currentEnergy = next, nextEnergy
		}
		if nextEnergy < bestEnergy {
			best, bestEnergy = next, nextEnergy
		}
	}
	return best, nil
}

// NewStrategy selects the strategy for op once: second-order when op has a
// pairwise potential, first-order otherwise.
func NewStrategy(first *FirstOrderStrategy, op *energy.Operator, params Parameters, rng *rand.Rand) Strategy {
	if !op.HasSecondOrderPotentials() {
		return first
	}
	return &SecondOrderStrategy{First: first, Energy: op, Params: params, Rand: rng}
}

var (
	_ Strategy = (*FirstOrderStrategy)(nil)
	_ Strategy = (*SecondOrderStrategy)(nil)
)
