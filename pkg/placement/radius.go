package placement

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// RadiusSampler draws one soma radius per call.
type RadiusSampler interface {
	Sample() float64
}

// RadiusFunc adapts a plain function to [RadiusSampler].
type RadiusFunc func() float64

// Sample calls f.
func (f RadiusFunc) Sample() float64 { return f() }

// TruncatedNormal samples a normal distribution restricted to [Low, High]
// by inverting the CDF, so each sample costs exactly one uniform draw.
type TruncatedNormal struct {
	Mean, Std, Low, High float64

	normal  distuv.Normal
	uniform distuv.Uniform
}

// NewTruncatedNormal validates the distribution and binds it to src.
func NewTruncatedNormal(mean, std, low, high float64, src rand.Source) (*TruncatedNormal, error) {
	checks := []struct {
		name string
		v    float64
	}{{"mean", mean}, {"std", std}, {"low", low}, {"high", high}}
	for _, c := range checks {
		if err := errors.ValidateNonNegative("soma radius "+c.name, c.v); err != nil {
			return nil, err
		}
	}
	if low > high {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "soma radius low %g exceeds high %g", low, high)
	}

	t := &TruncatedNormal{Mean: mean, Std: std, Low: low, High: high}
	if std == 0 {
		if mean < low || mean > high {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "soma radius mean %g outside [%g, %g] with zero std", mean, low, high)
		}
		return t, nil
	}

	t.normal = distuv.Normal{Mu: mean, Sigma: std, Src: src}
	lo, hi := t.normal.CDF(low), t.normal.CDF(high)
	if !(hi > lo) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "soma radius window [%g, %g] has no probability mass for N(%g, %g)", low, high, mean, std)
	}
	t.uniform = distuv.Uniform{Min: lo, Max: hi, Src: src}
	return t, nil
}

// Sample returns a radius in [Low, High].
func (t *TruncatedNormal) Sample() float64 {
	if t.Std == 0 {
		return t.Mean
	}
	x := t.normal.Quantile(t.uniform.Rand())
	return math.Min(math.Max(x, t.Low), t.High)
}
