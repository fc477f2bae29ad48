package spatial

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

func TestSpherePatternAdd(t *testing.T) {
	p := NewSpherePattern(2, 10)
	if p.Len() != 0 || p.Cap() != 2 {
		t.Fatalf("Len/Cap = %d/%d, want 0/2", p.Len(), p.Cap())
	}

	if slot := p.Add(r3.Vector{X: 1, Y: 2, Z: 3}, 4); slot != 0 {
		t.Errorf("first slot = %d, want 0", slot)
	}
	if slot := p.Add(r3.Vector{X: -5}, 1); slot != 1 {
		t.Errorf("second slot = %d, want 1", slot)
	}
	if got := p.Coordinates(); len(got) != 2 || got[0] != (r3.Vector{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Coordinates() = %v", got)
	}
	if got := p.Radii(); len(got) != 2 || got[1] != 1 {
		t.Errorf("Radii() = %v", got)
	}
}

func TestSpherePatternCapacityPanics(t *testing.T) {
	p := NewSpherePattern(1, 10)
	p.Add(r3.Vector{}, 1)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Add past capacity should panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, errors.ErrCodeCapacity) {
			t.Errorf("panic value = %v, want CAPACITY error", r)
		}
	}()
	p.Add(r3.Vector{X: 100}, 1)
}

func TestIsIntersecting(t *testing.T) {
	p := NewSpherePattern(3, 5)
	p.Add(r3.Vector{}, 2)
	p.Add(r3.Vector{X: 40}, 6)

	tests := []struct {
		name   string
		center r3.Vector
		radius float64
		want   bool
	}{
		{"overlapping first", r3.Vector{X: 3}, 1.5, true},
		{"touching first", r3.Vector{X: 3}, 1, false},
		{"far away", r3.Vector{X: 20}, 1, false},
		{"reached by large neighbour", r3.Vector{X: 32}, 2.5, true},
		{"just outside large neighbour", r3.Vector{X: 32}, 1.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsIntersecting(tt.center, tt.radius); got != tt.want {
				t.Errorf("IsIntersecting(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}

func TestIsIntersectingReadsOwnWrites(t *testing.T) {
	p := NewSpherePattern(1, 10)
	c := r3.Vector{X: 7, Y: 7, Z: 7}
	if p.IsIntersecting(c, 1) {
		t.Fatal("empty pattern should not intersect")
	}
	p.Add(c, 1)
	if !p.IsIntersecting(c, 1) {
		t.Error("pattern should see the sphere it just stored")
	}
}

func TestDistanceToNearestNeighbor(t *testing.T) {
	p := NewSpherePattern(4, 10)
	if d := p.DistanceToNearestNeighbor(r3.Vector{}, 100); !math.IsInf(d, 1) {
		t.Errorf("empty pattern distance = %v, want +Inf", d)
	}

	p.Add(r3.Vector{X: 10}, 1)
	p.Add(r3.Vector{Y: -4}, 1)

	if d := p.DistanceToNearestNeighbor(r3.Vector{}, 100); math.Abs(d-4) > 1e-12 {
		t.Errorf("distance = %v, want 4", d)
	}
	if d := p.DistanceToNearestNeighbor(r3.Vector{}, 3); !math.IsInf(d, 1) {
		t.Errorf("distance beyond cutoff = %v, want +Inf", d)
	}
	if d := p.DistanceToNearestNeighbor(r3.Vector{}, math.Inf(1)); math.Abs(d-4) > 1e-12 {
		t.Errorf("distance with infinite cutoff = %v, want 4", d)
	}
}

func TestGridMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n = 400
	p := NewSpherePattern(n, 8)
	for range n {
		p.Add(randomVector(rng, 200), 1+3*rng.Float64())
	}

	for range 200 {
		q := randomVector(rng, 220)
		r := 5 * rng.Float64()

		wantHit := false
		wantSlot, wantD2 := -1, math.Inf(1)
		for i := range p.Len() {
			d2 := q.Sub(p.Center(i)).Norm2()
			if sum := r + p.Radius(i); d2 < sum*sum {
				wantHit = true
			}
			if d2 < wantD2 {
				wantSlot, wantD2 = i, d2
			}
		}

		if got := p.IsIntersecting(q, r); got != wantHit {
			t.Errorf("IsIntersecting(%v, %v) = %v, want %v", q, r, got, wantHit)
		}
		if slot, ok := p.Nearest(q); !ok || slot != wantSlot {
			t.Errorf("Nearest(%v) = %d, want %d", q, slot, wantSlot)
		}
		cutoff := 15.0
		got := p.DistanceToNearestNeighbor(q, cutoff)
		want := math.Sqrt(wantD2)
		if want > cutoff {
			want = math.Inf(1)
		}
		if got != want && math.Abs(got-want) > 1e-9 {
			t.Errorf("DistanceToNearestNeighbor(%v) = %v, want %v", q, got, want)
		}
	}
}

func randomVector(rng *rand.Rand, scale float64) r3.Vector {
	return r3.Vector{
		X: scale * (rng.Float64() - 0.5),
		Y: scale * (rng.Float64() - 0.5),
		Z: scale * (rng.Float64() - 0.5),
	}
}
