package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/cache"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/config"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/energy"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/observability"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/placement"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/spatial"
)

const cacheKeyType = "placement"

// Runner executes placements with caching. It holds no per-run state, so
// one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// uses cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// keyedRecipe is the part of a recipe, besides inputs and seed, that
// changes the placed cells.
type keyedRecipe struct {
	SomaRadius  config.SomaRadius    `json:"soma_radius"`
	Parameters  placement.Parameters `json:"parameters"`
	MaxAttempts int                  `json:"max_attempts"`
	Potentials  []energy.Config      `json:"potentials"`
}

// Execute runs load → place → export, serving the placement from the cache
// when an identical run was stored before.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	recipe, logger := opts.Recipe, opts.Logger

	loadStart := time.Now()
	in, err := LoadInputs(recipe, opts.Limits)
	if err != nil {
		return nil, err
	}
	result := &Result{Target: in.Field.TotalCount()}
	result.Stats.LoadTime = time.Since(loadStart)
	logger.Info("loaded inputs",
		"shape", in.Field.Shape(),
		"target", result.Target,
		"obstacles", in.ObstacleCount,
		"duration", result.Stats.LoadTime)

	result.CacheKey = r.Keyer.PlacementKey(cache.PlacementKeyOpts{
		DensityHash:   in.DensityHash,
		ObstaclesHash: in.ObstaclesHash,
		Seed:          recipe.Seed,
		Recipe: keyedRecipe{
			SomaRadius:  recipe.SomaRadius,
			Parameters:  recipe.Placement.Parameters,
			MaxAttempts: recipe.Placement.MaxAttempts,
			Potentials:  recipe.Potentials,
		},
	})

	placeStart := time.Now()
	if entry, ok := r.lookup(ctx, result.CacheKey, opts.Refresh); ok {
		p := entry.Placement
		result.Placement = p
		result.RunID = p.RunID
		result.Rejections = entry.Rejections
		result.CacheHit = true
		result.Summary = placement.Summarize(patternOf(p))
		logger.Info("placement served from cache", "run", p.RunID, "cells", p.Len())
	} else {
		res, err := Place(ctx, in, recipe, opts)
		if err != nil {
			return nil, err
		}
		result.RunID = uuid.NewString()
		result.Placement = ngvio.NewPlacement(result.RunID, recipe.Seed, res.Pattern.Coordinates(), res.Pattern.Radii())
		result.Rejections = res.Rejections
		result.Summary = placement.Summarize(res.Pattern)
		r.store(ctx, result.CacheKey, &cachedRun{Placement: result.Placement, Rejections: res.Rejections})
	}
	result.Stats.PlaceTime = time.Since(placeStart)
	logger.Info("placed somata",
		"run", result.RunID,
		"cells", result.Summary.Cells,
		"mean_nn", result.Summary.MeanNeighborDistance,
		"duration", result.Stats.PlaceTime)

	if path := recipe.Output.Path; path != "" && !opts.SkipExport {
		exportStart := time.Now()
		if err := ngvio.Export(path, recipe.Output.Format, result.Placement); err != nil {
			return nil, err
		}
		result.Stats.ExportTime = time.Since(exportStart)
		logger.Info("exported", "path", path, "format", recipe.Output.Format, "duration", result.Stats.ExportTime)
	}
	return result, nil
}

// Place runs the generator for recipe over loaded inputs. All randomness,
// radius draws included, comes from one generator seeded with recipe.Seed.
func Place(ctx context.Context, in *Inputs, recipe *config.Recipe, opts Options) (*placement.Result, error) {
	rng := rand.New(rand.NewPCG(recipe.Seed, recipe.Seed))
	s := recipe.SomaRadius
	radii, err := placement.NewTruncatedNormal(s.Mean, s.Std, s.Low, s.High, rng)
	if err != nil {
		return nil, err
	}
	op, err := energy.NewOperator(recipe.Potentials)
	if err != nil {
		return nil, err
	}
	gen, err := placement.NewGenerator(in.Field, rng, placement.Options{
		Radii:       radii,
		Energy:      op,
		Parameters:  recipe.Placement.Parameters,
		Obstacles:   in.Obstacles,
		MaxAttempts: recipe.Placement.MaxAttempts,
		CellSize:    recipe.Placement.CellSize,
		Progress:    opts.Progress,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
	})
	if err != nil {
		return nil, err
	}
	return gen.Run(ctx)
}

// cachedRun is what the cache holds for one placement run.
type cachedRun struct {
	Placement  *ngvio.Placement    `json:"placement"`
	Rejections placement.Rejections `json:"rejections"`
}

func (r *Runner) lookup(ctx context.Context, key string, refresh bool) (*cachedRun, bool) {
	if refresh {
		return nil, false
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	var entry cachedRun
	if err := json.Unmarshal(data, &entry); err != nil || entry.Placement == nil || len(entry.Placement.Radii) != entry.Placement.Len() {
		r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		_ = r.Cache.Delete(ctx, key)
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, cacheKeyType)
	return &entry, true
}

func (r *Runner) store(ctx context.Context, key string, entry *cachedRun) {
	data, err := json.Marshal(entry)
	if err != nil {
		r.Logger.Warn("encode cache entry", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// patternOf rebuilds a sphere pattern from exported cells.
func patternOf(p *ngvio.Placement) *spatial.SpherePattern {
	pattern := spatial.NewSpherePattern(p.Len(), 0)
	for i, pos := range p.Positions {
		pattern.Add(r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]}, p.Radii[i])
	}
	return pattern
}
