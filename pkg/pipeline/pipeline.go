// Package pipeline runs a complete placement: load inputs, place somata,
// summarize and export, with result caching.
//
// Both the CLI and the HTTP API go through [Runner], so a recipe produces
// the same cells, cache keys and logs whichever entry point ran it.
//
// # Usage
//
//	recipe, err := config.Load("recipe.toml")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Recipe: recipe})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Summary.Cells, "cells in", res.Stats.PlaceTime)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/config"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/placement"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configure one pipeline run.
type Options struct {
	Recipe *config.Recipe

	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool
	// SkipExport leaves Recipe.Output.Path untouched.
	SkipExport bool
	// Limits bound untrusted recipes, e.g. those received over HTTP.
	Limits Limits

	// Runtime options
	Logger   *log.Logger
	Progress func(placed, target int)
	Hooks    observability.PlacementHooks

	validated bool
}

// ValidateAndSetDefaults checks the recipe and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Recipe == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "recipe is required")
	}
	o.Recipe.SetDefaults()
	if err := o.Recipe.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Limits bound the work a recipe may request. Zero values mean no limit.
type Limits struct {
	// MaxVoxels caps the density volume. It is checked before the voxels
	// are allocated.
	MaxVoxels int
	// MaxCells caps the number of somata the density may ask for.
	MaxCells int
	// ConfineDataFiles rejects detached NRRD data outside the header's
	// directory.
	ConfineDataFiles bool
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a pipeline run.
type Result struct {
	// RunID identifies the run that produced the cells. A cache hit keeps
	// the ID of the original run.
	RunID string

	Placement  *ngvio.Placement
	Summary    placement.Summary
	Target     int
	Rejections placement.Rejections

	// CacheKey is the key the result is stored under.
	CacheKey string
	CacheHit bool

	Stats Stats
}

// Stats contains pipeline timings.
type Stats struct {
	LoadTime   time.Duration
	PlaceTime  time.Duration
	ExportTime time.Duration
}
