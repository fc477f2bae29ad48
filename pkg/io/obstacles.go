package io

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/segmentio/encoding/json"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// Sphere is a fixed spherical obstacle.
type Sphere struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// Segment is a truncated cone between two points, e.g. a vessel section.
type Segment struct {
	Start       [3]float64 `json:"start"`
	End         [3]float64 `json:"end"`
	StartRadius float64    `json:"start_radius"`
	EndRadius   float64    `json:"end_radius"`
}

// Obstacles is the fixed geometry somata must not intersect.
type Obstacles struct {
	Spheres  []Sphere  `json:"spheres,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Len returns the number of obstacle primitives.
func (o *Obstacles) Len() int { return len(o.Spheres) + len(o.Segments) }

// ReadObstacles loads obstacles from a JSON file.
func ReadObstacles(path string) (*Obstacles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open obstacles %s", path)
	}
	defer f.Close()

	o, err := DecodeObstacles(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read obstacles %s", path)
	}
	return o, nil
}

// DecodeObstacles parses and validates obstacle JSON.
func DecodeObstacles(r io.Reader) (*Obstacles, error) {
	var o Obstacles
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate checks that every radius is finite and non-negative and every
// coordinate finite.
func (o *Obstacles) Validate() error {
	for i, s := range o.Spheres {
		if err := validatePrimitive(fmt.Sprintf("spheres[%d]", i), []float64{s.Radius}, s.Center); err != nil {
			return err
		}
	}
	for i, s := range o.Segments {
		if err := validatePrimitive(fmt.Sprintf("segments[%d]", i), []float64{s.StartRadius, s.EndRadius}, s.Start, s.End); err != nil {
			return err
		}
	}
	return nil
}

func validatePrimitive(name string, radii []float64, points ...[3]float64) error {
	for _, r := range radii {
		if err := errors.ValidateNonNegative(name+" radius", r); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", name)
		}
	}
	for _, p := range points {
		for _, c := range p {
			if err := errors.ValidateFinite(name+" coordinate", c); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", name)
			}
		}
	}
	return nil
}

// Indexes builds one static collision index for the spheres and one for
// the discretised segments. Empty kinds are skipped.
func (o *Obstacles) Indexes() ([]spatial.Intersector, error) {
	var out []spatial.Intersector

	if len(o.Spheres) > 0 {
		centers := make([]r3.Vector, len(o.Spheres))
		radii := make([]float64, len(o.Spheres))
		for i, s := range o.Spheres {
			centers[i], radii[i] = vec(s.Center), s.Radius
		}
		idx, err := spatial.NewStaticIndex(centers, radii)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}

	if len(o.Segments) > 0 {
		var centers []r3.Vector
		var radii []float64
		for _, s := range o.Segments {
			c, r := spatial.SegmentSpheres(vec(s.Start), vec(s.End), s.StartRadius, s.EndRadius)
			centers = append(centers, c...)
			radii = append(radii, r...)
		}
		idx, err := spatial.NewStaticIndex(centers, radii)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

func vec(p [3]float64) r3.Vector { return r3.Vector{X: p[0], Y: p[1], Z: p[2]} }
