// Package graph provides the serialization format for positioned diagrams.
//
// A [Layout] is what every consumer of crewboard receives: the HTTP API
// returns it from the layout endpoint, the CLI writes it as *.layout.json,
// and the pipeline caches it. Renderers take a Layout as input.
//
// # Core Types
//
//   - [Layout]: Unified format for visualization layouts (canvas or nodelink)
//   - [Node]: A diagram node with level and canvas position
//   - [Edge]: A task link, flagged Back when it closes a cycle
//
// # Constants
//
// This package is the single source of truth for visualization constants:
//
//	graph.VizTypeCanvas     // "canvas"
//	graph.VizTypeNodelink   // "nodelink"
//	graph.KindAgent         // "agent"
//	graph.KindOutput        // "output"
//
// # Building Layouts
//
// [FromDiagram] joins a diagram with its leveling result:
//
//	nodes, edges := d.LayoutInput()
//	res := layout.Compute(nodes, edges, 1280, layout.DefaultOptions())
//	l := graph.FromDiagram(d, res, 1280, layout.DefaultOptions())
//
// # Layout Serialization
//
// Layouts are discriminated by VizType:
//
//	l, _ := graph.UnmarshalLayout(data)
//	if l.IsCanvas() {
//	    // Use l.Nodes for positioned nodes
//	} else {
//	    // Use l.DOT for Graphviz rendering
//	}
//
// A missing viz type is read as canvas.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
