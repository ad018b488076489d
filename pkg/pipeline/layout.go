package pipeline

import (
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/layout"
	"github.com/matzehuels/crewboard/pkg/render/nodelink"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout generates a complete layout for any visualization type.
// This is the unified entry point for generating serializable layout data.
//
// Both canvas and nodelink layouts carry the leveled, positioned nodes and
// the task edges; nodelink layouts add the DOT source for Graphviz.
func GenerateLayout(d *diagram.Diagram, opts Options) (graph.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, err
	}
	nodes, edges := d.LayoutInput()
	res := layout.Compute(nodes, edges, opts.CanvasWidth, opts.Spacing)
	canvas := graph.FromDiagram(d, res, opts.CanvasWidth, opts.Spacing)

	if opts.IsNodelink() {
		dot := nodelink.ToDOT(d, res.Levels, nodelink.Options{Detailed: opts.Detailed})
		return nodelink.Export(dot, canvas), nil
	}
	return canvas, nil
}
