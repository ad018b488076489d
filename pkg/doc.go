// Package pkg provides the core libraries behind crewboard, the engine of the
// crew workflow editor.
//
// # Overview
//
// A crew is a set of AI agents joined by task links: each link is a task the
// source agent performs and hands to the target agent, and a single output
// node collects the final result. crewboard levels crew diagrams into tiers,
// places them on the editor canvas, renders them and derives the order in
// which tasks run. The pkg directory is organized into these areas:
//
//  1. [diagram] - The crew diagram model, its defaults and validation
//  2. [layout] - The lenient leveler and canvas placement
//  3. [dag] and [plan] - Strict task ordering and execution plans
//  4. [graph] and [render] - Serialized layouts and their SVG/DOT renderings
//  5. [pipeline] - Orchestration (layout → render) with caching
//  6. [store] and [cache] - The diagram library and the result cache
//
// # Architecture
//
// The typical data flow through crewboard:
//
//	Diagram JSON/YAML (editor, file, library)
//	         ↓
//	    [diagram] package (decode, normalize, validate)
//	         ↓
//	    [layout] package (levels + canvas positions)
//	         ↓
//	    [graph] package (serializable Layout)
//	         ↓
//	    [render] package (canvas SVG or Graphviz nodelink)
//	         ↓
//	    SVG/JSON/DOT output
//
// The execution plan branches off after [diagram]: [plan.Build] orders the
// task graph with [dag] and fails on cycles, where [layout] never fails.
//
// # Quick Start
//
// Level a diagram and render it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/crewboard/pkg/diagram"
//	    "github.com/matzehuels/crewboard/pkg/pipeline"
//	)
//
//	d, _ := diagram.ReadFile("research_crew.json")
//	d.Normalize()
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), d, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("research_crew.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Main Packages
//
// ## Domain
//
// [diagram] - Nodes, links and diagrams as the editor stores them. Output
// node detection, editor defaults ([diagram.Diagram.Normalize]) and the
// structural checks of [diagram.Diagram.Validate].
//
// [layout] - Breadth-first leveling from the agents without inputs, with the
// output node on its own final level, and centered placement of each level.
// Malformed input degrades instead of failing.
//
// [dag] - Directed task graph with topological sorting, used where order
// must be exact.
//
// [plan] - The execution plan: one step per link, agents in topological
// order, plus a markdown brief of the crew.
//
// ## Visualization
//
// [graph] - The serialized layout shared by the HTTP API, the CLI's
// *.layout.json files and the cache.
//
// [render/canvas] - SVG of the editor canvas: every agent at its computed
// position, links as straight connectors.
//
// [render/nodelink] - Graphviz rendering where levels become ranks and links
// closing a cycle are drawn dashed.
//
// ## Infrastructure
//
// [pipeline] - Complete pipeline (layout → render) used by the CLI, the HTTP
// API and the MCP server. Ensures consistent behavior across entry points.
//
// [cache] - Byte cache for layouts and artifacts with file, Redis and null
// implementations, content-addressed keys and retry helpers.
//
// [store] - The diagram library with file, SQLite and MongoDB backends
// sharing one contract test suite.
//
// [observability] - Hook interfaces for pipeline, cache, store and HTTP
// events, with a Prometheus implementation in [observability/prom].
//
// [errors] - Coded errors shared by every layer and mapped to HTTP statuses.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests (Graphviz, MongoDB)
//
// [diagram]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/diagram
// [layout]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/layout
// [dag]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/dag
// [plan]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/plan
// [plan.Build]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/plan#Build
// [graph]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/render
// [render/canvas]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/render/canvas
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/observability/prom
// [errors]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/errors
// [diagram.Diagram.Normalize]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/diagram#Diagram.Normalize
// [diagram.Diagram.Validate]: https://pkg.go.dev/github.com/matzehuels/crewboard/pkg/diagram#Diagram.Validate
package pkg
