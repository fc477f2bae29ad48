// Package config loads placement recipes.
//
// A recipe is a TOML file describing one placement run:
//
//	seed = 42
//
//	[density]
//	path = "astrocytes.nrrd"      # or: uniform = { shape = [4, 4, 4], voxel_size = [25, 25, 25], value = 14000 }
//
//	[obstacles]
//	path = "vasculature.json"
//
//	[soma_radius]
//	mean = 5.6
//	std  = 0.74
//	low  = 4.45
//	high = 8.0
//
//	[placement]
//	beta                = 0.01
//	number_of_trials    = 3
//	cutoff_radius       = 60.0
//	initial_sample_size = 1000
//
//	[[potentials]]
//	name   = "spring"
//	params = [0.1, 30.0]
//
//	[output]
//	path   = "somata.json"
//	format = "json"
//
// Relative paths are resolved against the recipe's directory. Unknown keys
// are rejected so typos do not silently fall back to defaults.
package config

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/placement"
)

// Default values applied by SetDefaults.
const (
	DefaultBeta              = 0.01
	DefaultNumberOfTrials    = 3
	DefaultCutoffRadius      = 60.0
	DefaultInitialSampleSize = 1000

	DefaultRadiusMean = 5.6
	DefaultRadiusStd  = 0.74
	DefaultRadiusLow  = 4.45
	DefaultRadiusHigh = 8.0
)

// Recipe is a complete placement run description.
type Recipe struct {
	Seed       uint64          `toml:"seed" json:"seed"`
	Density    Density         `toml:"density" json:"density"`
	Obstacles  Obstacles       `toml:"obstacles" json:"obstacles"`
	SomaRadius SomaRadius      `toml:"soma_radius" json:"soma_radius"`
	Placement  Placement       `toml:"placement" json:"placement"`
	Potentials []energy.Config `toml:"potentials" json:"potentials,omitempty"`
	Output     Output          `toml:"output" json:"output"`
}

// Density names the density volume: an NRRD file or a constant field.
type Density struct {
	Path    string          `toml:"path" json:"path,omitempty"`
	Uniform *UniformDensity `toml:"uniform" json:"uniform,omitempty"`
}

// UniformDensity is a constant field, mostly for tests and demos.
type UniformDensity struct {
	Shape     [3]int     `toml:"shape" json:"shape"`
	VoxelSize [3]float64 `toml:"voxel_size" json:"voxel_size"`
	Offset    [3]float64 `toml:"offset" json:"offset"`
	// Value is the cell density in cells/mm³.
	Value float64 `toml:"value" json:"value"`
}

// Obstacles optionally names an obstacle JSON file.
type Obstacles struct {
	Path string `toml:"path" json:"path,omitempty"`
}

// SomaRadius is the truncated normal radius distribution in µm.
type SomaRadius struct {
	Mean float64 `toml:"mean" json:"mean"`
	Std  float64 `toml:"std" json:"std"`
	Low  float64 `toml:"low" json:"low"`
	High float64 `toml:"high" json:"high"`
}

// Placement holds the generator parameters.
type Placement struct {
	placement.Parameters
	MaxAttempts int     `toml:"max_attempts" json:"max_attempts,omitempty"`
	CellSize    float64 `toml:"cell_size" json:"cell_size,omitempty"`
}

// Output names where and how results are written.
type Output struct {
	Path   string `toml:"path" json:"path,omitempty"`
	Format string `toml:"format" json:"format,omitempty"`
}

// Load reads, defaults and validates the recipe at path.
func Load(path string) (*Recipe, error) {
	var r Recipe
	md, err := toml.DecodeFile(path, &r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse recipe %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	r.Resolve(filepath.Dir(path))
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Parse decodes a recipe from TOML text without resolving paths.
func Parse(data string) (*Recipe, error) {
	var r Recipe
	md, err := toml.Decode(data, &r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse recipe")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown recipe keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// Resolve makes relative input and output paths relative to dir.
func (r *Recipe) Resolve(dir string) {
	for _, p := range []*string{&r.Density.Path, &r.Obstacles.Path, &r.Output.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// SetDefaults fills unset fields. The soma radius distribution is
// defaulted only when entirely unset.
func (r *Recipe) SetDefaults() {
	if r.SomaRadius == (SomaRadius{}) {
		r.SomaRadius = SomaRadius{
			Mean: DefaultRadiusMean,
			Std:  DefaultRadiusStd,
			Low:  DefaultRadiusLow,
			High: DefaultRadiusHigh,
		}
	}
	p := &r.Placement
	if p.Beta == 0 {
		p.Beta = DefaultBeta
	}
	if p.NumberOfTrials == 0 {
		p.NumberOfTrials = DefaultNumberOfTrials
	}
	if p.CutoffRadius == 0 {
		p.CutoffRadius = DefaultCutoffRadius
	}
	if p.InitialSampleSize == 0 {
		p.InitialSampleSize = DefaultInitialSampleSize
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = placement.DefaultMaxAttempts
	}
	if r.Output.Format == "" {
		r.Output.Format = ngvio.FormatJSON
	}
}

// Validate checks the recipe before any input is read.
func (r *Recipe) Validate() error {
	d := r.Density
	switch {
	case d.Path == "" && d.Uniform == nil:
		return errors.New(errors.ErrCodeInvalidConfig, "density: set either path or uniform")
	case d.Path != "" && d.Uniform != nil:
		return errors.New(errors.ErrCodeInvalidConfig, "density: path and uniform are mutually exclusive")
	case d.Uniform != nil:
		for i, n := range d.Uniform.Shape {
			if n <= 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "density.uniform.shape[%d] must be > 0, got %d", i, n)
			}
		}
		for _, v := range d.Uniform.VoxelSize {
			if err := errors.ValidatePositive("density.uniform.voxel_size", v); err != nil {
				return err
			}
		}
		if err := errors.ValidateNonNegative("density.uniform.value", d.Uniform.Value); err != nil {
			return err
		}
	}

	s := r.SomaRadius
	if s.Low > s.High {
		return errors.New(errors.ErrCodeInvalidConfig, "soma_radius: low %g exceeds high %g", s.Low, s.High)
	}
	for _, v := range []float64{s.Mean, s.Std, s.Low, s.High} {
		if err := errors.ValidateNonNegative("soma_radius", v); err != nil {
			return err
		}
	}

	if err := r.Placement.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "placement")
	}
	if r.Placement.MaxAttempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "placement.max_attempts must be >= 0")
	}
	if _, err := energy.NewOperator(r.Potentials); err != nil {
		return err
	}

	switch r.Output.Format {
	case ngvio.FormatJSON, ngvio.FormatCSV:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "output.format %q (want one of %v)", r.Output.Format, ngvio.Formats)
	}
	return nil
}
