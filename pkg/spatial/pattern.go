package spatial

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// DefaultCellSize is the grid resolution used when a non-positive cell size
// is requested. It matches a typical atlas voxel edge in µm.
const DefaultCellSize = 25.0

type cellKey [3]int

// SpherePattern is an append-only arena of accepted spheres with a uniform
// grid index mirroring its contents. Slots are assigned in insertion order
// and never reused or mutated. It is not safe for concurrent use.
type SpherePattern struct {
	centers []r3.Vector
	radii   []float64
	n       int

	cellSize  float64
	cells     map[cellKey][]int
	maxRadius float64
}

// NewSpherePattern allocates a pattern holding at most capacity spheres.
// cellSize is the edge of a grid cell; something close to the largest
// sphere diameter keeps queries to a handful of cells.
func NewSpherePattern(capacity int, cellSize float64) *SpherePattern {
	if capacity < 0 {
		capacity = 0
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	return &SpherePattern{
		centers:  make([]r3.Vector, capacity),
		radii:    make([]float64, capacity),
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
	}
}

// Len returns the number of stored spheres.
func (p *SpherePattern) Len() int { return p.n }

// Cap returns the fixed capacity.
func (p *SpherePattern) Cap() int { return len(p.centers) }

// Center returns the center stored in slot i.
func (p *SpherePattern) Center(i int) r3.Vector { return p.centers[i] }

// Radius returns the radius stored in slot i.
func (p *SpherePattern) Radius(i int) float64 { return p.radii[i] }

// Coordinates returns the occupied prefix of the center arena. Do not modify.
func (p *SpherePattern) Coordinates() []r3.Vector { return p.centers[:p.n] }

// Radii returns the occupied prefix of the radius arena. Do not modify.
func (p *SpherePattern) Radii() []float64 { return p.radii[:p.n] }

// Add appends a sphere at the next free slot and indexes it. It returns the
// slot. Adding past capacity is a caller bug and panics with an
// ErrCodeCapacity error.
func (p *SpherePattern) Add(center r3.Vector, radius float64) int {
	if p.n == len(p.centers) {
		panic(errors.New(errors.ErrCodeCapacity, "sphere pattern is full (capacity %d)", len(p.centers)))
	}
	slot := p.n
	p.centers[slot] = center
	p.radii[slot] = radius
	p.n++

	key := p.cellOf(center)
	p.cells[key] = append(p.cells[key], slot)
	if radius > p.maxRadius {
		p.maxRadius = radius
	}
	return slot
}

// IsIntersecting reports whether a sphere at center with the given radius
// overlaps a stored sphere, i.e. center distance < sum of radii.
func (p *SpherePattern) IsIntersecting(center r3.Vector, radius float64) bool {
	if p.n == 0 {
		return false
	}
	hit := false
	p.visit(center, radius+p.maxRadius, func(slot int) bool {
		reach := radius + p.radii[slot]
		if center.Sub(p.centers[slot]).Norm2() < reach*reach {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// SphereIntersects implements [Intersector].
func (p *SpherePattern) SphereIntersects(center r3.Vector, radius float64) bool {
	return p.IsIntersecting(center, radius)
}

// DistanceToNearestNeighbor returns the distance from pos to the closest
// stored center when that distance is at most cutoff, and +Inf otherwise
// (including when the pattern is empty).
func (p *SpherePattern) DistanceToNearestNeighbor(pos r3.Vector, cutoff float64) float64 {
	if p.n == 0 || cutoff < 0 || math.IsNaN(cutoff) {
		return math.Inf(1)
	}
	best := math.Inf(1)
	p.visit(pos, cutoff, func(slot int) bool {
		if d2 := pos.Sub(p.centers[slot]).Norm2(); d2 < best {
			best = d2
		}
		return true
	})
	best = math.Sqrt(best)
	if best > cutoff {
		return math.Inf(1)
	}
	return best
}

// Nearest returns the slot of the stored center closest to pos.
func (p *SpherePattern) Nearest(pos r3.Vector) (int, bool) {
	if p.n == 0 {
		return -1, false
	}
	origin := p.cellOf(pos)
	bestSlot, best := -1, math.Inf(1)
	for shell := 0; ; shell++ {
		side := 2*shell + 1
		if side*side*side > p.n {
			return p.nearestScan(pos)
		}
		p.shell(origin, shell, func(slot int) {
			if d2 := pos.Sub(p.centers[slot]).Norm2(); d2 < best {
				bestSlot, best = slot, d2
			}
		})
		// Anything beyond this shell is at least shell*cellSize away.
		if bestSlot >= 0 && float64(shell)*p.cellSize >= math.Sqrt(best) {
			return bestSlot, true
		}
	}
}

func (p *SpherePattern) nearestScan(pos r3.Vector) (int, bool) {
	bestSlot, best := -1, math.Inf(1)
	for slot := 0; slot < p.n; slot++ {
		if d2 := pos.Sub(p.centers[slot]).Norm2(); d2 < best {
			bestSlot, best = slot, d2
		}
	}
	return bestSlot, bestSlot >= 0
}

// visit calls fn for every slot whose cell lies within reach of pos, or for
// every slot when scanning the arena is cheaper than walking the cells.
// fn returns false to stop early.
func (p *SpherePattern) visit(pos r3.Vector, reach float64, fn func(slot int) bool) {
	cellsPerAxis := 2*reach/p.cellSize + 2
	if math.IsInf(reach, 0) || cellsPerAxis*cellsPerAxis*cellsPerAxis > float64(p.n) {
		for slot := 0; slot < p.n; slot++ {
			if !fn(slot) {
				return
			}
		}
		return
	}

	lo := p.cellOf(pos.Sub(r3.Vector{X: reach, Y: reach, Z: reach}))
	hi := p.cellOf(pos.Add(r3.Vector{X: reach, Y: reach, Z: reach}))
	for i := lo[0]; i <= hi[0]; i++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for k := lo[2]; k <= hi[2]; k++ {
				for _, slot := range p.cells[cellKey{i, j, k}] {
					if !fn(slot) {
						return
					}
				}
			}
		}
	}
}

// shell calls fn for the slots of every cell at Chebyshev distance s from
// origin.
func (p *SpherePattern) shell(origin cellKey, s int, fn func(slot int)) {
	for i := -s; i <= s; i++ {
		for j := -s; j <= s; j++ {
			for k := -s; k <= s; k++ {
				if max(abs(i), abs(j), abs(k)) != s {
					continue
				}
				for _, slot := range p.cells[cellKey{origin[0] + i, origin[1] + j, origin[2] + k}] {
					fn(slot)
				}
			}
		}
	}
}

func (p *SpherePattern) cellOf(v r3.Vector) cellKey {
	return cellKey{
		int(math.Floor(v.X / p.cellSize)),
		int(math.Floor(v.Y / p.cellSize)),
		int(math.Floor(v.Z / p.cellSize)),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
