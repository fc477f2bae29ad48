package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/config"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/errors"
	ngvio "github.com/BlueBrain/ArchNGV-sub001/pkg/io"
	"github.com/BlueBrain/ArchNGV-sub001/pkg/pipeline"
)

// placeOpts holds flags for the place command.
type placeOpts struct {
	seed     uint64
	output   string
	format   string
	refresh  bool
	progress bool
	cache    cacheFlags
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var opts placeOpts

	cmd := &cobra.Command{
		Use:   "place <recipe.toml>",
		Short: "Place astrocyte somata described by a recipe",
		Long: `Place astrocyte somata described by a TOML recipe.

Results are cached by the content of the density and obstacle files and the
recipe's placement settings, so re-running an unchanged recipe is instant.`,
		Example: `  ngv place recipe.toml
  ngv place recipe.toml --seed 7 -o somata.csv -f csv
  ngv place recipe.toml --progress --cache-url redis://localhost:6379/0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := applyPlaceFlags(cmd, recipe, opts); err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), recipe, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "override the recipe seed")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (overrides the recipe)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(ngvio.Formats, ", "))
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a live progress view")
	addCacheFlags(cmd, &opts.cache)

	return cmd
}

// applyPlaceFlags overrides recipe values with explicitly set flags.
func applyPlaceFlags(cmd *cobra.Command, r *config.Recipe, opts placeOpts) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		r.Seed = opts.seed
	}
	if flags.Changed("output") {
		r.Output.Path = opts.output
	}
	if flags.Changed("format") {
		if !slices.Contains(ngvio.Formats, opts.format) {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want one of %s)", opts.format, strings.Join(ngvio.Formats, ", "))
		}
		r.Output.Format = opts.format
	}
	return r.Validate()
}

func (c *CLI) runPlace(ctx context.Context, recipe *config.Recipe, opts placeOpts) error {
	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	prog := newProgress(c.Logger)
	popts := pipeline.Options{
		Recipe:  recipe,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	}

	var res *pipeline.Result
	if opts.progress {
		res, err = runWithProgress(ctx, runner, popts)
	} else {
		res, err = runner.Execute(ctx, popts)
	}
	if err != nil {
		return err
	}
	prog.done("Placement finished")

	printPlaceResult(res, recipe.Output.Path)
	return nil
}

func printPlaceResult(res *pipeline.Result, output string) {
	if res.Target == 0 {
		printWarning("Density field yields no cells")
		return
	}
	printSuccess("Placed %d somata", res.Summary.Cells)
	printStats(res.Summary.Cells, res.Target, res.CacheHit)
	printDetail("run %s", res.RunID)
	fmt.Println(summaryTable(res))
	if output != "" {
		printFile(output)
	}
}
