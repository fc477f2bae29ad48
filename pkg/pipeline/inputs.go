package pipeline

import (
	"bytes"
	"math"
	"os"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/cache"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/config"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/density"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// Inputs are the loaded volumes of a recipe together with content hashes
// used for cache keys.
type Inputs struct {
	Field       *density.Field
	DensityHash string

	Obstacles     []spatial.Intersector
	ObstacleCount int
	ObstaclesHash string
}

// LoadInputs reads the density volume and obstacles named by r, refusing
// volumes and cell counts beyond lim.
func LoadInputs(r *config.Recipe, lim Limits) (*Inputs, error) {
	in := &Inputs{}

	switch d := r.Density; {
	case d.Uniform != nil:
		u := d.Uniform
		if _, err := density.CountVoxels(u.Shape, lim.MaxVoxels); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "uniform density")
		}
		f, err := density.Uniform(u.Shape, u.VoxelSize, u.Offset, u.Value)
		if err != nil {
			return nil, err
		}
		in.Field = f
	default:
		f, err := ngvio.ReadNRRD(d.Path, ngvio.NRRDOptions{
			MaxVoxels:       lim.MaxVoxels,
			ConfineDataFile: lim.ConfineDataFiles,
		})
		if err != nil {
			return nil, err
		}
		in.Field = f
	}
	in.DensityHash = fieldHash(in.Field)

	if lim.MaxCells > 0 {
		if n := math.RoundToEven(in.Field.ExpectedCount()); n > float64(lim.MaxCells) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "density yields %.0f cells, limit is %d", n, lim.MaxCells)
		}
	}

	if path := r.Obstacles.Path; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read obstacles %s", path)
		}
		o, err := ngvio.DecodeObstacles(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "read obstacles %s", path)
		}
		if in.Obstacles, err = o.Indexes(); err != nil {
			return nil, err
		}
		in.ObstacleCount = o.Len()
		in.ObstaclesHash = cache.Hash(data)
	}
	return in, nil
}

// fieldHash hashes the decoded field, so a detached NRRD data file is
// covered along with its header.
func fieldHash(f *density.Field) string {
	shape, size, offset := f.Shape(), f.VoxelSize(), f.Offset()
	geometry := []float64{
		float64(shape[0]), float64(shape[1]), float64(shape[2]),
		size.X, size.Y, size.Z,
		offset.X, offset.Y, offset.Z,
	}
	return cache.HashValues(geometry, f.Values())
}
