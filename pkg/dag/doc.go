// Package dag provides the directed task graph behind a crew diagram.
//
// # Overview
//
// Each agent of a crew is a node and each task link is an edge from the
// agent doing the work to the agent consuming its result. The graph is used
// where strict ordering matters: deriving the execution plan and marking the
// links that close a cycle when a diagram is drawn. On-canvas leveling is
// handled separately by the lenient leveler in package layout.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Nodes must have unique IDs and edges can only connect
// existing nodes:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "researcher"})
//	g.AddNode(dag.Node{ID: "writer"})
//	g.AddEdge(dag.Edge{From: "researcher", To: "writer"})
//
// Query the graph structure with [DAG.Children], [DAG.Parents],
// [DAG.Sources] and related methods. Nodes and edges are always reported in
// insertion order.
//
// # Ordering
//
// [DAG.TopologicalSort] returns a stable topological order (Kahn's algorithm,
// ties broken by insertion order) or [ErrGraphHasCycle]. [DAG.BackEdges]
// finds the edges that close cycles with a white/gray/black depth-first
// search; renderers draw those edges distinctly instead of failing.
//
// # Metadata
//
// Nodes, edges and the graph itself carry [Metadata] maps. They are never
// nil after creation - empty maps are automatically initialized.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
