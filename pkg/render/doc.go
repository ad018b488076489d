// Package render groups the crewboard renderers.
//
// # Canvas
//
// The [canvas] subpackage draws the diagram the way the editor shows it:
// rounded cards at the positions computed by the leveler.
//
//	svg := canvas.RenderSVG(l, canvas.WithDetails())
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders traditional directed graph diagrams
// using Graphviz, ranked by the same levels.
//
//	dot := nodelink.ToDOT(d, levels, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [canvas]: github.com/matzehuels/crewboard/pkg/render/canvas
// [nodelink]: github.com/matzehuels/crewboard/pkg/render/nodelink
package render
