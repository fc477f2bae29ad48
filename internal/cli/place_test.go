package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/pipeline"
)

// 2×2×2 voxels of 25 µm at 128000 cells/mm³ hold two cells each.
const testRecipe = `
seed = 5

[density]
uniform = { shape = [2, 2, 2], voxel_size = [25, 25, 25], value = 128000 }

[soma_radius]
mean = 3
std  = 0.5
low  = 2
high = 4

[output]
path = "somata.json"
`

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func writeRecipe(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.toml")
	if err := os.WriteFile(path, []byte(testRecipe), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlaceCommand(t *testing.T) {
	recipe := writeRecipe(t)

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"place", recipe, "--no-cache"})
	if err := root.Execute(); err != nil {
		t.Fatalf("place: %v", err)
	}

	out := filepath.Join(filepath.Dir(recipe), "somata.json")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("recipe output not written: %v", err)
	}
	if !strings.Contains(string(data), `"radii"`) {
		t.Errorf("output is not a placement: %s", data)
	}
}

func TestPlaceCommandFlagsOverrideRecipe(t *testing.T) {
	recipe := writeRecipe(t)
	out := filepath.Join(t.TempDir(), "cells.csv")

	root := newTestCLI().RootCommand()
	root.SetArgs([]string{"place", recipe, "--no-cache", "--seed", "9", "-o", out, "-f", "csv"})
	if err := root.Execute(); err != nil {
		t.Fatalf("place: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "x,y,z,radius" {
		t.Errorf("header = %q, want x,y,z,radius", lines[0])
	}
	if len(lines) != 17 {
		t.Errorf("csv has %d lines, want 17", len(lines))
	}
}

func TestPlaceCommandErrors(t *testing.T) {
	recipe := writeRecipe(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown format", []string{"place", recipe, "--no-cache", "-f", "hdf5"}, errors.ErrCodeInvalidConfig},
		{"missing recipe", []string{"place", filepath.Join(t.TempDir(), "nope.toml")}, errors.ErrCodeInvalidConfig},
		{"bad cache url", []string{"place", recipe, "--cache-url", "ftp://cache"}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTestCLI().RootCommand()
			root.SetArgs(tt.args)
			root.SetErr(io.Discard)
			if err := root.Execute(); !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestPlaceModel(t *testing.T) {
	canceled := false
	var m tea.Model = PlaceModel{cancel: func() { canceled = true }}

	m, _ = m.Update(progressMsg{placed: 12, target: 100})
	if pm := m.(PlaceModel); pm.Placed != 12 || pm.Target != 100 {
		t.Errorf("progress = %d/%d, want 12/100", pm.Placed, pm.Target)
	}
	if view := m.View(); !strings.Contains(view, "12") || !strings.Contains(view, "100") {
		t.Errorf("View() = %q, want counts", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !canceled || !m.(PlaceModel).Quitting {
		t.Error("q should cancel the run")
	}

	res := &pipeline.Result{Target: 100}
	res.Summary.Cells = 100
	m, cmd := m.Update(doneMsg{res: res})
	if cmd == nil {
		t.Fatal("doneMsg should quit the program")
	}
	if pm := m.(PlaceModel); pm.res != res || pm.Placed != 100 {
		t.Errorf("final model = %+v", pm)
	}
}

func TestRejectionCounter(t *testing.T) {
	var c rejectionCounter
	for range 3 {
		c.OnRejection(context.Background(), "overlap")
	}
	if got := c.n.Load(); got != 3 {
		t.Errorf("rejections = %d, want 3", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		want        int
	}{
		{0, 10, 0},
		{5, 10, 5},
		{10, 10, 10},
		{3, 0, 10},
	}
	for _, tt := range tests {
		bar := progressBar(tt.done, tt.total, 10)
		if got := strings.Count(bar, "█"); got != tt.want {
			t.Errorf("progressBar(%d, %d) filled = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
