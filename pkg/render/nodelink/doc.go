// Package nodelink renders crew diagrams as Graphviz node-link diagrams.
//
// # Overview
//
// This is the alternative to the editor-style canvas drawing: Graphviz lays
// out the agents as boxes and routes the task links, while the tiers come
// from the leveler so both views agree on which agent sits where.
//
// # Usage
//
// Convert a diagram and its levels to DOT, then render to SVG:
//
//	nodes, edges := d.LayoutInput()
//	dot := nodelink.ToDOT(d, layout.Assign(nodes, edges), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Export] packs the DOT source into a [graph.Layout] for caching and JSON
// output.
//
// # Options
//
//   - Detailed: When true, agent labels include the goal and tool list
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package nodelink
