package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
)

func samplePlacement() *Placement {
	return NewPlacement("run-1", 42,
		[]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -4.5, Y: 0, Z: 1e-3}},
		[]float64{5, 6.25})
}

func TestPlacementJSON(t *testing.T) {
	want := samplePlacement()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONMismatchedLengths(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"positions": [[0,0,0]], "radii": []}`))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, samplePlacement()); err != nil {
		t.Fatal(err)
	}
	want := "x,y,z,radius\n1,2,3,5\n-4.5,0,0.001,6.25\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "hdf5", samplePlacement())
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Write() error = %v, want UNSUPPORTED", err)
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.csv")
	if err := Export(path, FormatCSV, samplePlacement()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "x,y,z,radius\n") {
		t.Errorf("exported file starts with %q", data[:min(len(data), 20)])
	}
}
