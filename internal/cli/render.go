package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/pkg/pipeline"
)

// renderCommand creates the render command for generating diagram output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [diagram.json]",
		Short: "Render a diagram to SVG, JSON or Graphviz DOT",
		Long: `Render a diagram to SVG, JSON or Graphviz DOT.

The canvas type (default) draws every agent at its editor position, level by
level, with the output node last. The nodelink type hands the diagram to
Graphviz: levels become ranks and links that close a cycle are drawn dashed.
DOT output is only available for nodelink.

Multiple formats can be requested at once (-f svg,json); each is written next
to the input, or next to the -o path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions()
			if err != nil {
				return err
			}
			flags.apply(cmd, &opts)
			opts.Formats = parseFormats(formatsStr)
			return c.runRender(cmd.Context(), args[0], opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	flags.register(cmd)

	return cmd
}

// runRender runs the full pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	d, err := loadDiagram(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	prog := newProgress(c.Logger)

	result, err := runner.Execute(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(input, output, opts.Formats)
	for _, format := range opts.Formats {
		path := paths[format]
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	prog.done("Rendered "+filepath.Base(input), "formats", strings.Join(opts.Formats, ","))

	printSuccess("Rendered %s diagram", result.Layout.VizType)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.LevelCount,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

// outputPaths maps each format to its output file. A single format uses the
// -o path verbatim; several formats share its base name.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := basePath(input)
	if output != "" {
		base = output
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); pipeline.ValidFormats[ext] {
			base = strings.TrimSuffix(output, filepath.Ext(output))
		}
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
