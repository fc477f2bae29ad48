package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// maxSegmentSamples bounds the spheres generated for a single segment.
const maxSegmentSamples = 1 << 16

// SegmentSpheres discretises a truncated cone into a chain of overlapping
// spheres. Consecutive centers are at most half the smaller end radius
// apart, so the chain covers the cone surface up to a small scallop.
// Radii are interpolated linearly between the ends.
func SegmentSpheres(start, end r3.Vector, startRadius, endRadius float64) ([]r3.Vector, []float64) {
	length := end.Sub(start).Norm()
	step := 0.5 * math.Min(startRadius, endRadius)
	if step <= 0 {
		step = 0.5 * math.Max(startRadius, endRadius)
	}

	n := 1
	if length > 0 && step > 0 {
		n = int(math.Ceil(length/step)) + 1
	}
	n = min(n, maxSegmentSamples)

	centers := make([]r3.Vector, n)
	radii := make([]float64, n)
	for i := range n {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		centers[i] = start.Add(end.Sub(start).Mul(t))
		radii[i] = startRadius + t*(endRadius-startRadius)
	}
	return centers, radii
}
