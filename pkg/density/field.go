package density

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// UnitConversion converts intensity × µm³ into a cell count, intensities
// being expressed per mm³.
const UnitConversion = 1e-9

// boundaryTolerance snaps fractional voxel coordinates that are within
// floating point noise of zero.
const boundaryTolerance = 1e-7

// Index addresses one voxel as (i, j, k) along (x, y, z).
type Index [3]int

// Field is a read-only voxelized density volume.
// Values are stored with x varying fastest: i + nx*(j + ny*k).
type Field struct {
	values    []float64
	shape     [3]int
	voxelSize r3.Vector
	offset    r3.Vector
}

// NewField validates and wraps a flat value slice. The slice is not copied;
// callers must not mutate it afterwards.
func NewField(values []float64, shape [3]int, voxelSize, offset [3]float64) (*Field, error) {
	n := 1
	for axis, s := range shape {
		if s <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "shape[%d] must be > 0, got %d", axis, s)
		}
		n *= s
	}
	if len(values) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "shape %v needs %d values, got %d", shape, n, len(values))
	}
	for axis, d := range voxelSize {
		if err := errors.ValidatePositive("voxel size", d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "axis %d", axis)
		}
	}
	for axis, o := range offset {
		if err := errors.ValidateFinite("offset", o); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "axis %d", axis)
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "density value %g at voxel %d is not finite and non-negative", v, i)
		}
	}
	return &Field{
		values:    values,
		shape:     shape,
		voxelSize: r3.Vector{X: voxelSize[0], Y: voxelSize[1], Z: voxelSize[2]},
		offset:    r3.Vector{X: offset[0], Y: offset[1], Z: offset[2]},
	}, nil
}

// CountVoxels returns the number of voxels in shape. It fails with
// INVALID_INPUT when an extent is not positive or the count exceeds limit;
// a limit <= 0 only guards against overflow.
func CountVoxels(shape [3]int, limit int) (int, error) {
	if limit <= 0 {
		limit = math.MaxInt
	}
	n := 1
	for axis, s := range shape {
		if s <= 0 {
			return 0, errors.New(errors.ErrCodeInvalidInput, "shape[%d] must be > 0, got %d", axis, s)
		}
		if n > limit/s {
			return 0, errors.New(errors.ErrCodeInvalidInput, "shape %v exceeds %d voxels", shape, limit)
		}
		n *= s
	}
	return n, nil
}

// Uniform builds a field holding the same intensity in every voxel.
func Uniform(shape [3]int, voxelSize, offset [3]float64, intensity float64) (*Field, error) {
	n, err := CountVoxels(shape, 0)
	if err != nil {
		return nil, err
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = intensity
	}
	return NewField(values, shape, voxelSize, offset)
}

// Shape returns the voxel extent along each axis.
func (f *Field) Shape() [3]int { return f.shape }

// VoxelSize returns the voxel edge lengths.
func (f *Field) VoxelSize() r3.Vector { return f.voxelSize }

// Offset returns the world position of the grid's minimum corner.
func (f *Field) Offset() r3.Vector { return f.offset }

// Values returns the raw intensities in storage order. Do not modify.
func (f *Field) Values() []float64 { return f.values }

// VoxelVolume returns the volume of one voxel in µm³.
func (f *Field) VoxelVolume() float64 {
	return f.voxelSize.X * f.voxelSize.Y * f.voxelSize.Z
}

// Bounds returns the world-space minimum and maximum corners of the grid.
func (f *Field) Bounds() (lo, hi r3.Vector) {
	ext := r3.Vector{
		X: float64(f.shape[0]) * f.voxelSize.X,
		Y: float64(f.shape[1]) * f.voxelSize.Y,
		Z: float64(f.shape[2]) * f.voxelSize.Z,
	}
	return f.offset, f.offset.Add(ext)
}

// At returns the intensity of voxel idx.
func (f *Field) At(idx Index) float64 {
	return f.values[f.flat(idx)]
}

// VoxelCorner returns the world position of the minimum corner of idx.
func (f *Field) VoxelCorner(idx Index) r3.Vector {
	return r3.Vector{
		X: f.offset.X + float64(idx[0])*f.voxelSize.X,
		Y: f.offset.Y + float64(idx[1])*f.voxelSize.Y,
		Z: f.offset.Z + float64(idx[2])*f.voxelSize.Z,
	}
}

// VoxelCenter returns the world position of the center of idx.
func (f *Field) VoxelCenter(idx Index) r3.Vector {
	return f.VoxelCorner(idx).Add(f.voxelSize.Mul(0.5))
}

// VoxelCountField returns the expected number of cells in each voxel, in
// storage order, and the total count for the whole field rounded to the
// nearest integer.
func (f *Field) VoxelCountField() ([]float64, int) {
	scale := f.VoxelVolume() * UnitConversion
	counts := make([]float64, len(f.values))
	floats.ScaleTo(counts, scale, f.values)
	return counts, int(math.RoundToEven(floats.Sum(counts)))
}

// ExpectedCount returns the unrounded number of cells the field holds.
// Unlike [Field.TotalCount] it cannot overflow, so callers bound it before
// sizing anything by the total.
func (f *Field) ExpectedCount() float64 {
	return floats.Sum(f.values) * f.VoxelVolume() * UnitConversion
}

// TotalCount returns the rounded total of [Field.VoxelCountField].
func (f *Field) TotalCount() int {
	_, total := f.VoxelCountField()
	return total
}

// InGeometry reports whether p maps onto a voxel of the grid.
func (f *Field) InGeometry(p r3.Vector) bool {
	_, ok := f.Locate(p)
	return ok
}

// Locate maps p to the voxel containing it. ok is false when p lies outside
// the grid.
func (f *Field) Locate(p r3.Vector) (idx Index, ok bool) {
	rel := [3]float64{
		(p.X - f.offset.X) / f.voxelSize.X,
		(p.Y - f.offset.Y) / f.voxelSize.Y,
		(p.Z - f.offset.Z) / f.voxelSize.Z,
	}
	for axis, r := range rel {
		if math.Abs(r) < boundaryTolerance {
			r = 0
		}
		fl := math.Floor(r)
		if math.IsNaN(fl) || fl < 0 || fl >= float64(f.shape[axis]) {
			return Index{}, false
		}
		idx[axis] = int(fl)
	}
	return idx, true
}

func (f *Field) flat(idx Index) int {
	return idx[0] + f.shape[0]*(idx[1]+f.shape[1]*idx[2])
}

func (f *Field) unflat(n int) Index {
	nx, ny := f.shape[0], f.shape[1]
	return Index{n % nx, (n / nx) % ny, n / (nx * ny)}
}

// VoxelGroup is a set of voxels sharing one intensity value together with
// the number of cells the group should receive.
type VoxelGroup struct {
	Intensity float64
	Voxels    []Index
	Centers   []r3.Vector
	// Weights is the unnormalized probability of drawing each voxel.
	Weights []float64
	Count   int
}

// GroupByIntensity partitions the non-zero voxels by intensity. A group's
// Count is round(intensity × voxels × voxel volume × 1e-9); groups whose
// count rounds to zero are dropped. Groups are ordered by ascending
// intensity and voxels within a group by storage order, so the result is
// deterministic.
func (f *Field) GroupByIntensity() []VoxelGroup {
	byValue := make(map[float64][]int)
	for n, v := range f.values {
		if v > 0 {
			byValue[v] = append(byValue[v], n)
		}
	}

	intensities := make([]float64, 0, len(byValue))
	for v := range byValue {
		intensities = append(intensities, v)
	}
	slices.Sort(intensities)

	volume := f.VoxelVolume()
	groups := make([]VoxelGroup, 0, len(intensities))
	for _, v := range intensities {
		members := byValue[v]
		count := int(math.RoundToEven(v * float64(len(members)) * volume * UnitConversion))
		if count == 0 {
			continue
		}
		groups = append(groups, f.group(v, members, count, func(int) float64 { return 1 }))
	}
	return groups
}

// RemainderGroup returns every non-zero voxel weighted by its expected cell
// count. It is used to top the pattern up when the per-group rounded counts
// add up to less than the field total.
func (f *Field) RemainderGroup(count int) VoxelGroup {
	var members []int
	for n, v := range f.values {
		if v > 0 {
			members = append(members, n)
		}
	}
	return f.group(0, members, count, func(n int) float64 { return f.values[n] })
}

func (f *Field) group(intensity float64, members []int, count int, weight func(int) float64) VoxelGroup {
	g := VoxelGroup{
		Intensity: intensity,
		Voxels:    make([]Index, len(members)),
		Centers:   make([]r3.Vector, len(members)),
		Weights:   make([]float64, len(members)),
		Count:     count,
	}
	for i, n := range members {
		idx := f.unflat(n)
		g.Voxels[i] = idx
		g.Centers[i] = f.VoxelCenter(idx)
		g.Weights[i] = weight(n)
	}
	return g
}
