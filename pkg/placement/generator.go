package placement

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/density"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

// DefaultProgressInterval is the number of cells between progress reports.
const DefaultProgressInterval = 1000

// Options configure a [Generator].
type Options struct {
	// Radii draws soma radii. Required.
	Radii RadiusSampler
	// Energy holds the pairwise potentials. Nil or empty selects
	// first-order placement.
	Energy *energy.Operator
	// Parameters tune the second-order refinement.
	Parameters Parameters
	// Obstacles are consulted for collision but never modified.
	Obstacles []spatial.Intersector
	// MaxAttempts caps the draws per placed cell (default DefaultMaxAttempts).
	MaxAttempts int
	// CellSize is the grid resolution of the pattern index.
	CellSize float64
	// ProgressInterval is the number of cells between progress callbacks
	// (default DefaultProgressInterval).
	ProgressInterval int
	// Progress, when set, is called with (placed, target) every
	// ProgressInterval cells and once at the end.
	Progress func(placed, target int)

	Logger *log.Logger
	// Hooks receive placement events (default observability.Placement()).
	Hooks observability.PlacementHooks
}

// Result is the outcome of a successful run.
type Result struct {
	Pattern    *spatial.SpherePattern
	Target     int
	Groups     int
	Rejections Rejections
	Duration   time.Duration
}

// Generator places somata in a density field. Create one per run.
type Generator struct {
	field    *density.Field
	rng      *rand.Rand
	opts     Options
	first    *FirstOrderStrategy
	strategy Strategy
	target   int
	rejected Rejections
}

// NewGenerator validates opts and selects the placement strategy.
func NewGenerator(field *density.Field, rng *rand.Rand, opts Options) (*Generator, error) {
	if field == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "density field is required")
	}
	if rng == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "random generator is required")
	}
	if opts.Radii == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "soma radius sampler is required")
	}
	if opts.Energy.HasSecondOrderPotentials() {
		if err := opts.Parameters.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Hooks == nil {
		opts.Hooks = observability.Placement()
	}

	g := &Generator{field: field, rng: rng, opts: opts, target: field.TotalCount()}
	g.first = &FirstOrderStrategy{
		Geometry:    field,
		Obstacles:   opts.Obstacles,
		Radii:       opts.Radii,
		MaxAttempts: opts.MaxAttempts,
		Rejections:  &g.rejected,
	}
	g.strategy = NewStrategy(g.first, opts.Energy, opts.Parameters, rng)
	return g, nil
}

// Target returns the total number of cells the run will place.
func (g *Generator) Target() int { return g.target }

// SecondOrder reports whether Metropolis refinement is active.
func (g *Generator) SecondOrder() bool {
	_, ok := g.strategy.(*SecondOrderStrategy)
	return ok
}

// Run places cells group by group until the field total is reached. Groups
// are visited in ascending intensity; each stops at its own count or at the
// global total, whichever comes first. When rounding per group leaves the
// pattern short of the total, the remainder is drawn from all non-zero
// voxels weighted by intensity. Cancellation is checked between cells.
//
// The top-up can place cells in voxels whose own group rounded to zero and
// was skipped. Such a group still contributes nothing by itself; the
// remainder pass trades that for a pattern of exactly [Generator.Target]
// cells.
func (g *Generator) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	logger := g.opts.Logger
	hooks := g.opts.Hooks
	g.first.OnReject = func(r Reason) { hooks.OnRejection(ctx, string(r)) }

	pattern := spatial.NewSpherePattern(g.target, g.opts.CellSize)
	hooks.OnPlacementStart(ctx, g.target)
	defer func() {
		hooks.OnPlacementComplete(ctx, pattern.Len(), time.Since(start), err)
	}()

	if g.target == 0 {
		logger.Warn("density field integrates to zero cells; nothing to place")
		return g.result(pattern, 0, start), nil
	}

	groups := g.field.GroupByIntensity()
	logger.Info("placing somata",
		"target", g.target,
		"groups", len(groups),
		"second_order", g.SecondOrder())

	for i := range groups {
		group := &groups[i]
		before := pattern.Len()
		want := min(group.Count, g.target-before)
		if err := g.fill(ctx, pattern, group, want); err != nil {
			return nil, err
		}
		hooks.OnGroupComplete(ctx, group.Intensity, pattern.Len()-before)
		logger.Debug("group placed", "intensity", group.Intensity, "cells", pattern.Len()-before)
		if pattern.Len() == g.target {
			break
		}
	}

	if short := g.target - pattern.Len(); short > 0 {
		rest := g.field.RemainderGroup(short)
		logger.Debug("topping up rounding remainder", "cells", short)
		if err := g.fill(ctx, pattern, &rest, short); err != nil {
			return nil, err
		}
		hooks.OnGroupComplete(ctx, rest.Intensity, short)
	}

	if g.opts.Progress != nil {
		g.opts.Progress(pattern.Len(), g.target)
	}
	res = g.result(pattern, len(groups), start)
	logger.Info("placement complete",
		"cells", pattern.Len(),
		"rejected", g.rejected.Total(),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

func (g *Generator) fill(ctx context.Context, pattern *spatial.SpherePattern, group *density.VoxelGroup, n int) error {
	voxels := NewVoxelSampler(g.field, group, g.rng)
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := g.strategy.Propose(pattern, voxels)
		if err != nil {
			return err
		}
		pattern.Add(c.Position, c.Radius)
		if placed := pattern.Len(); placed%g.opts.ProgressInterval == 0 {
			g.opts.Logger.Debug("progress", "placed", placed, "target", g.target)
			if g.opts.Progress != nil {
				g.opts.Progress(placed, g.target)
			}
		}
	}
	return nil
}

func (g *Generator) result(pattern *spatial.SpherePattern, groups int, start time.Time) *Result {
	return &Result{
		Pattern:    pattern,
		Target:     g.target,
		Groups:     groups,
		Rejections: g.rejected,
		Duration:   time.Since(start),
	}
}
