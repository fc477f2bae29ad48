package density

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

var cube25 = [3]float64{25, 25, 25}

func TestNewFieldValidation(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		shape     [3]int
		voxelSize [3]float64
		wantErr   bool
	}{
		{"valid", []float64{0, 1, 2, 3}, [3]int{2, 2, 1}, cube25, false},
		{"length mismatch", []float64{0, 1, 2}, [3]int{2, 2, 1}, cube25, true},
		{"zero shape", nil, [3]int{0, 2, 1}, cube25, true},
		{"negative value", []float64{0, -1, 2, 3}, [3]int{2, 2, 1}, cube25, true},
		{"nan value", []float64{0, math.NaN(), 2, 3}, [3]int{2, 2, 1}, cube25, true},
		{"inf value", []float64{0, math.Inf(1), 2, 3}, [3]int{2, 2, 1}, cube25, true},
		{"zero voxel size", []float64{1}, [3]int{1, 1, 1}, [3]float64{25, 0, 25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(tt.values, tt.shape, tt.voxelSize, [3]float64{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestVoxelCountField(t *testing.T) {
	// 1000 µm voxels are 1e9 µm³ = 1 mm³, so intensity equals count.
	f, err := NewField([]float64{0, 1.4, 2.2, 0.5}, [3]int{4, 1, 1}, [3]float64{1000, 1000, 1000}, [3]float64{})
	if err != nil {
		t.Fatal(err)
	}
	counts, total := f.VoxelCountField()
	want := []float64{0, 1.4, 2.2, 0.5}
	for i := range want {
		if math.Abs(counts[i]-want[i]) > 1e-12 {
			t.Errorf("counts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestZeroDensityField(t *testing.T) {
	f, err := Uniform([3]int{3, 3, 3}, cube25, [3]float64{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.TotalCount(); got != 0 {
		t.Errorf("TotalCount() = %d, want 0", got)
	}
	if groups := f.GroupByIntensity(); len(groups) != 0 {
		t.Errorf("GroupByIntensity() returned %d groups, want 0", len(groups))
	}
}

func TestGroupByIntensityRoundingSkipsGroup(t *testing.T) {
	// intensity 1.0, 100 voxels, voxel volume 1.0 -> round(1e-7) = 0.
	f, err := Uniform([3]int{10, 10, 1}, [3]float64{1, 1, 1}, [3]float64{}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if groups := f.GroupByIntensity(); len(groups) != 0 {
		t.Errorf("GroupByIntensity() returned %d groups, want 0", len(groups))
	}
}

func TestGroupByIntensity(t *testing.T) {
	mm := [3]float64{1000, 1000, 1000}
	values := []float64{3, 0, 2, 3, 2, 3}
	f, err := NewField(values, [3]int{3, 2, 1}, mm, [3]float64{})
	if err != nil {
		t.Fatal(err)
	}
	groups := f.GroupByIntensity()
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}

	low, high := groups[0], groups[1]
	if low.Intensity != 2 || high.Intensity != 3 {
		t.Errorf("intensities = %v, %v, want ascending 2, 3", low.Intensity, high.Intensity)
	}
	if low.Count != 4 || high.Count != 9 {
		t.Errorf("counts = %d, %d, want 4, 9", low.Count, high.Count)
	}
	wantHigh := []Index{{0, 0, 0}, {0, 1, 0}, {2, 1, 0}}
	for i, idx := range wantHigh {
		if high.Voxels[i] != idx {
			t.Errorf("high.Voxels[%d] = %v, want %v", i, high.Voxels[i], idx)
		}
	}
	if c := high.Centers[0]; c != (r3.Vector{X: 500, Y: 500, Z: 500}) {
		t.Errorf("high.Centers[0] = %v, want (500,500,500)", c)
	}
	if len(high.Weights) != len(high.Voxels) {
		t.Errorf("weights and voxels differ in length")
	}
}

func TestRemainderGroup(t *testing.T) {
	f, err := NewField([]float64{0, 2, 6}, [3]int{3, 1, 1}, cube25, [3]float64{})
	if err != nil {
		t.Fatal(err)
	}
	g := f.RemainderGroup(5)
	if g.Count != 5 || len(g.Voxels) != 2 {
		t.Fatalf("RemainderGroup = %+v", g)
	}
	if g.Weights[0] != 2 || g.Weights[1] != 6 {
		t.Errorf("weights = %v, want [2 6]", g.Weights)
	}
}

func TestInGeometry(t *testing.T) {
	f, err := Uniform([3]int{2, 3, 4}, [3]float64{10, 10, 10}, [3]float64{-5, 0, 100}, 1)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		p    r3.Vector
		want bool
	}{
		{"origin corner", r3.Vector{X: -5, Y: 0, Z: 100}, true},
		{"just below corner within tolerance", r3.Vector{X: -5 - 1e-9, Y: 0, Z: 100}, true},
		{"below corner", r3.Vector{X: -5.1, Y: 0, Z: 100}, false},
		{"interior", r3.Vector{X: 10, Y: 25, Z: 135}, true},
		{"upper x face", r3.Vector{X: 15, Y: 1, Z: 101}, false},
		{"upper z face", r3.Vector{X: 0, Y: 1, Z: 140}, false},
		{"nan", r3.Vector{X: math.NaN(), Y: 1, Z: 101}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.InGeometry(tt.p); got != tt.want {
				t.Errorf("InGeometry(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestLocateRoundTripsCenters(t *testing.T) {
	f, err := Uniform([3]int{4, 3, 2}, [3]float64{7, 11, 13}, [3]float64{1, 2, 3}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for n := range f.Values() {
		idx := f.unflat(n)
		got, ok := f.Locate(f.VoxelCenter(idx))
		if !ok || got != idx {
			t.Errorf("Locate(center(%v)) = %v, %v", idx, got, ok)
		}
		if f.flat(idx) != n {
			t.Errorf("flat(unflat(%d)) = %d", n, f.flat(idx))
		}
	}
}

func TestCountVoxels(t *testing.T) {
	tests := []struct {
		name    string
		shape   [3]int
		limit   int
		want    int
		wantErr bool
	}{
		{"within limit", [3]int{4, 5, 6}, 120, 120, false},
		{"no limit", [3]int{100, 100, 100}, 0, 1_000_000, false},
		{"over limit", [3]int{2000, 2000, 2000}, 1 << 24, 0, true},
		{"overflow", [3]int{1 << 30, 1 << 30, 1 << 30}, 0, 0, true},
		{"zero extent", [3]int{4, 0, 4}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountVoxels(tt.shape, tt.limit)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("CountVoxels() error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("CountVoxels() = %d, %v, want %d", got, err, tt.want)
			}
		})
	}
}

func TestExpectedCount(t *testing.T) {
	// 8 voxels of 1 mm³ at 2.5 cells/mm³.
	f, err := Uniform([3]int{2, 2, 2}, [3]float64{1000, 1000, 1000}, [3]float64{}, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.ExpectedCount(); math.Abs(got-20) > 1e-9 {
		t.Errorf("ExpectedCount() = %v, want 20", got)
	}
	if got := f.TotalCount(); got != 20 {
		t.Errorf("TotalCount() = %d, want 20", got)
	}
}
