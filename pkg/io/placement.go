package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/segmentio/encoding/json"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatCSV}

// Placement is the exported result of one run.
type Placement struct {
	RunID     string       `json:"run_id"`
	Seed      uint64       `json:"seed"`
	Positions [][3]float64 `json:"positions"`
	Radii     []float64    `json:"radii"`
}

// NewPlacement copies coordinates and radii into an exportable value.
func NewPlacement(runID string, seed uint64, coords []r3.Vector, radii []float64) *Placement {
	p := &Placement{
		RunID:     runID,
		Seed:      seed,
		Positions: make([][3]float64, len(coords)),
		Radii:     append([]float64{}, radii...),
	}
	for i, c := range coords {
		p.Positions[i] = [3]float64{c.X, c.Y, c.Z}
	}
	return p
}

// Len returns the number of cells.
func (p *Placement) Len() int { return len(p.Positions) }

// WriteJSON encodes p as indented JSON.
func WriteJSON(w io.Writer, p *Placement) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a placement written by [WriteJSON].
func ReadJSON(r io.Reader) (*Placement, error) {
	var p Placement
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode placement")
	}
	if len(p.Positions) != len(p.Radii) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%d positions but %d radii", len(p.Positions), len(p.Radii))
	}
	return &p, nil
}

// WriteCSV writes one "x,y,z,radius" row per cell after a header row.
func WriteCSV(w io.Writer, p *Placement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "radius"}); err != nil {
		return err
	}
	row := make([]string, 4)
	for i, pos := range p.Positions {
		for j, v := range pos {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[3] = strconv.FormatFloat(p.Radii[i], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write encodes p in the named format.
func Write(w io.Writer, format string, p *Placement) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, p)
	case FormatCSV:
		return WriteCSV(w, p)
	default:
		return errors.New(errors.ErrCodeUnsupported, "output format %q (want one of %v)", format, Formats)
	}
}

// Export writes p to path in the named format.
func Export(path, format string, p *Placement) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, format, p); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
