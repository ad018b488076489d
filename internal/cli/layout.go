package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/pipeline"
)

// layoutFlags holds the flags shared by layout and render. Unset flags fall
// back to the [layout] section of the config.
type layoutFlags struct {
	vizType  string
	width    float64
	detailed bool
	noCache  bool
	refresh  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.vizType, "type", "t", "", "visualization type: canvas (default), nodelink")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width in pixels (default 1280)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show goals and tools on nodes")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")
}

// apply overlays the flags the user set on opts.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if cmd.Flags().Changed("type") {
		opts.VizType = f.vizType
	}
	if cmd.Flags().Changed("width") {
		opts.CanvasWidth = f.width
	}
	if cmd.Flags().Changed("detailed") {
		opts.Detailed = f.detailed
	}
	opts.Refresh = f.refresh
}

// layoutCommand creates the layout command for computing canvas layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Level a diagram and compute canvas positions",
		Long: `Level a diagram and compute canvas positions.

The layout command reads a crew diagram (JSON, or YAML with a .yaml/.yml
extension), assigns every agent to a level by breadth-first expansion from the
agents without inputs, puts the output node on its own final level and places
each level centered on the canvas. The result is written as a layout.json file
(same format as 'render -f json').

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions()
			if err != nil {
				return err
			}
			flags.apply(cmd, &opts)
			return c.runLayout(cmd.Context(), args[0], opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the diagram, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	d, err := loadDiagram(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	prog := newProgress(c.Logger)

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath(input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	prog.done("Computed layout", "levels", len(l.Levels), "cached", cacheHit)

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(l.Nodes), len(l.Edges), len(l.Levels), cacheHit)
	if l.Cyclic {
		printWarning("No start node found; every agent was placed on the first level")
	}
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}
