package placement

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// Summary describes a finished pattern.
type Summary struct {
	Cells int `json:"cells"`

	// Nearest-neighbour center distances; zero when fewer than two cells.
	MeanNeighborDistance float64 `json:"mean_neighbor_distance"`
	StdNeighborDistance  float64 `json:"std_neighbor_distance"`
	MinNeighborDistance  float64 `json:"min_neighbor_distance"`

	MeanRadius float64 `json:"mean_radius"`
	MinRadius  float64 `json:"min_radius"`
	MaxRadius  float64 `json:"max_radius"`
}

// Summarize computes nearest-neighbour and radius statistics of p.
func Summarize(p *spatial.SpherePattern) Summary {
	s := Summary{Cells: p.Len()}
	if s.Cells == 0 {
		return s
	}

	radii := p.Radii()
	s.MeanRadius = stat.Mean(radii, nil)
	s.MinRadius = floats.Min(radii)
	s.MaxRadius = floats.Max(radii)
	if s.Cells < 2 {
		return s
	}

	coords := p.Coordinates()
	points := make(kdtree.Points, len(coords))
	for i, c := range coords {
		points[i] = kdtree.Point{c.X, c.Y, c.Z}
	}
	tree := kdtree.New(points, false)

	dists := make([]float64, len(points))
	for i, q := range points {
		// q itself sits in the tree at distance zero, so its neighbour is
		// the farther of the two nearest entries.
		keep := kdtree.NewNKeeper(2)
		tree.NearestSet(keep, q)
		d := 0.0
		for _, cd := range keep.Heap {
			if cd.Comparable != nil {
				d = math.Max(d, cd.Dist)
			}
		}
		dists[i] = math.Sqrt(d)
	}
	s.MeanNeighborDistance, s.StdNeighborDistance = stat.MeanStdDev(dists, nil)
	s.MinNeighborDistance = floats.Min(dists)
	return s
}
