package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// Intersector is the read-only collision capability placement consumes for
// geometry it does not own.
type Intersector interface {
	// SphereIntersects reports whether the sphere overlaps any held geometry.
	SphereIntersects(center r3.Vector, radius float64) bool
	// Nearest returns the index of the element closest to pos, or false when
	// the index is empty.
	Nearest(pos r3.Vector) (int, bool)
}

// StaticIndex is an immutable k-d tree over obstacle spheres. It is safe
// for concurrent readers.
type StaticIndex struct {
	tree      *kdtree.Tree
	centers   []r3.Vector
	radii     []float64
	maxRadius float64
}

// NewStaticIndex builds an index over the given spheres. The slices are
// copied.
func NewStaticIndex(centers []r3.Vector, radii []float64) (*StaticIndex, error) {
	if len(centers) != len(radii) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%d centers but %d radii", len(centers), len(radii))
	}
	idx := &StaticIndex{
		centers: append([]r3.Vector(nil), centers...),
		radii:   append([]float64(nil), radii...),
	}
	nodes := make(sphereNodes, len(centers))
	for i, c := range idx.centers {
		r := idx.radii[i]
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "obstacle %d has invalid radius %g", i, r)
		}
		if r > idx.maxRadius {
			idx.maxRadius = r
		}
		nodes[i] = sphereNode{pos: c, slot: i}
	}
	if len(nodes) > 0 {
		idx.tree = kdtree.New(nodes, false)
	}
	return idx, nil
}

// Len returns the number of indexed spheres.
func (s *StaticIndex) Len() int { return len(s.centers) }

// Sphere returns the center and radius of element i.
func (s *StaticIndex) Sphere(i int) (r3.Vector, float64) { return s.centers[i], s.radii[i] }

// SphereIntersects reports whether the sphere overlaps an indexed sphere.
func (s *StaticIndex) SphereIntersects(center r3.Vector, radius float64) bool {
	if s.tree == nil {
		return false
	}
	reach := radius + s.maxRadius
	keep := kdtree.NewDistKeeper(reach * reach)
	s.tree.NearestSet(keep, sphereNode{pos: center, slot: -1})
	for _, c := range keep.Heap {
		n, ok := c.Comparable.(sphereNode)
		if !ok {
			continue
		}
		sum := radius + s.radii[n.slot]
		if c.Dist < sum*sum {
			return true
		}
	}
	return false
}

// Nearest returns the index of the sphere whose center is closest to pos.
func (s *StaticIndex) Nearest(pos r3.Vector) (int, bool) {
	if s.tree == nil {
		return -1, false
	}
	c, _ := s.tree.Nearest(sphereNode{pos: pos, slot: -1})
	n, ok := c.(sphereNode)
	if !ok {
		return -1, false
	}
	return n.slot, true
}

// sphereNode adapts a sphere center to kdtree.Comparable. Distance is the
// squared Euclidean distance, as the tree's pruning expects.
type sphereNode struct {
	pos  r3.Vector
	slot int
}

func (n sphereNode) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return n.pos.X
	case 1:
		return n.pos.Y
	default:
		return n.pos.Z
	}
}

func (n sphereNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return n.coord(d) - c.(sphereNode).coord(d)
}

func (n sphereNode) Dims() int { return 3 }

func (n sphereNode) Distance(c kdtree.Comparable) float64 {
	return n.pos.Sub(c.(sphereNode).pos).Norm2()
}

type sphereNodes []sphereNode

func (s sphereNodes) Index(i int) kdtree.Comparable         { return s[i] }
func (s sphereNodes) Len() int                              { return len(s) }
func (s sphereNodes) Pivot(d kdtree.Dim) int                { return nodePlane{sphereNodes: s, Dim: d}.Pivot() }
func (s sphereNodes) Slice(start, end int) kdtree.Interface { return s[start:end] }

// nodePlane sorts nodes along one dimension for median selection.
type nodePlane struct {
	kdtree.Dim
	sphereNodes
}

func (p nodePlane) Less(i, j int) bool {
	return p.sphereNodes[i].coord(p.Dim) < p.sphereNodes[j].coord(p.Dim)
}
func (p nodePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.sphereNodes = p.sphereNodes[start:end]
	return p
}
func (p nodePlane) Swap(i, j int) {
	p.sphereNodes[i], p.sphereNodes[j] = p.sphereNodes[j], p.sphereNodes[i]
}

var (
	_ Intersector = (*StaticIndex)(nil)
	_ Intersector = (*SpherePattern)(nil)
)
