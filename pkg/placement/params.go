package placement

import (
	"math"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// DefaultMaxAttempts caps the draws spent placing one cell.
const DefaultMaxAttempts = 100000

// Parameters tune the second-order refinement.
type Parameters struct {
	// Beta is the inverse temperature of the Metropolis acceptance rule.
	Beta float64 `toml:"beta" json:"beta"`
	// NumberOfTrials bounds the proposals tried per refined cell.
	NumberOfTrials int `toml:"number_of_trials" json:"number_of_trials"`
	// CutoffRadius is the distance beyond which neighbours do not interact.
	CutoffRadius float64 `toml:"cutoff_radius" json:"cutoff_radius"`
	// InitialSampleSize cells are placed first-order before refinement starts.
	InitialSampleSize int `toml:"initial_sample_size" json:"initial_sample_size"`
}

// Validate checks the parameter ranges. Beta may be +Inf, which rejects
// every energy increase.
func (p Parameters) Validate() error {
	if math.IsNaN(p.Beta) || p.Beta <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "beta must be > 0, got %g", p.Beta)
	}
	if p.NumberOfTrials < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "number_of_trials must be >= 0, got %d", p.NumberOfTrials)
	}
	if err := errors.ValidateNonNegative("cutoff_radius", p.CutoffRadius); err != nil {
		return err
	}
	if p.InitialSampleSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "initial_sample_size must be >= 0, got %d", p.InitialSampleSize)
	}
	return nil
}
