package placement

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/stat"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

func TestTruncatedNormalBounds(t *testing.T) {
	tn, err := NewTruncatedNormal(5, 2, 4, 6, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]float64, 5000)
	for i := range samples {
		samples[i] = tn.Sample()
		if samples[i] < 4 || samples[i] > 6 {
			t.Fatalf("sample %v outside [4, 6]", samples[i])
		}
	}
	// Symmetric window around the mean.
	if mean := stat.Mean(samples, nil); math.Abs(mean-5) > 0.05 {
		t.Errorf("mean = %v, want ~5", mean)
	}
}

func TestTruncatedNormalZeroStd(t *testing.T) {
	tn, err := NewTruncatedNormal(5, 0, 4, 6, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if got := tn.Sample(); got != 5 {
		t.Errorf("Sample() = %v, want 5", got)
	}
}

func TestTruncatedNormalValidation(t *testing.T) {
	tests := []struct {
		name                 string
		mean, std, low, high float64
	}{
		{"negative std", 5, -1, 4, 6},
		{"negative low", 5, 1, -1, 6},
		{"inverted window", 5, 1, 6, 4},
		{"nan mean", math.NaN(), 1, 4, 6},
		{"zero std outside window", 10, 0, 4, 6},
		{"window without mass", 0, 0.1, 100, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTruncatedNormal(tt.mean, tt.std, tt.low, tt.high, rand.NewPCG(1, 1))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("NewTruncatedNormal() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Parameters
		wantErr bool
	}{
		{"valid", Parameters{Beta: 1, NumberOfTrials: 3, CutoffRadius: 60, InitialSampleSize: 10}, false},
		{"infinite beta", Parameters{Beta: math.Inf(1)}, false},
		{"zero beta", Parameters{Beta: 0}, true},
		{"nan beta", Parameters{Beta: math.NaN()}, true},
		{"negative trials", Parameters{Beta: 1, NumberOfTrials: -1}, true},
		{"negative cutoff", Parameters{Beta: 1, CutoffRadius: -1}, true},
		{"negative sample size", Parameters{Beta: 1, InitialSampleSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(spatial.NewSpherePattern(0, 0)); got != (Summary{}) {
		t.Errorf("Summarize(empty) = %+v", got)
	}

	p := spatial.NewSpherePattern(3, 10)
	p.Add(r3.Vector{}, 1)
	p.Add(r3.Vector{X: 3}, 2)
	p.Add(r3.Vector{X: 10}, 3)

	// Neighbour distances: 3, 3, 7.
	want := Summary{
		Cells:                3,
		MeanNeighborDistance: 13.0 / 3,
		StdNeighborDistance:  math.Sqrt(16.0 / 3),
		MinNeighborDistance:  3,
		MeanRadius:           2,
		MinRadius:            1,
		MaxRadius:            3,
	}
	if diff := cmp.Diff(want, Summarize(p), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
