// Package layout levels a crew diagram into tiers and places every node on
// the editor canvas.
//
// # Overview
//
// A crew diagram is a directed graph of agent nodes joined by task links,
// usually ending in a single output node that collects the final result.
// Before the diagram can be drawn it needs coordinates: this package assigns
// every node to a level (a horizontal tier, top to bottom in execution order)
// and turns level ordinals into pixel positions.
//
// The leveler is deliberately lenient. An editor must always render
// something, so malformed input never produces an error:
//
//   - Edges whose endpoints are not both known nodes are ignored.
//   - A graph with no start node (every node has an incoming edge) collapses
//     into a single flat level, reported through [Levels.Cyclic].
//   - Nodes the breadth-first expansion never reaches are appended to the
//     last regular level.
//
// # Levels
//
// [Assign] computes the level assignment. Start nodes are the nodes with no
// incoming edges (the output node excluded); each following level holds the
// not yet visited successors of the previous one. The output node, when
// present, always forms the final singleton level.
//
//	lv := layout.Assign(
//	    []layout.Node{{Key: "a"}, {Key: "b"}, {Key: "output", Output: true}},
//	    []layout.Edge{{From: "a", To: "b"}, {From: "b", To: "output"}},
//	)
//	// lv.Levels == [][]string{{"a"}, {"b"}, {"output"}}
//
// # Positions
//
// [Place] spaces the nodes of each level evenly and centers the level inside
// the canvas width minus a side margin on both sides. Even level ordinals are
// shifted right by a quarter of the horizontal spacing so that links between
// consecutive levels overlap less:
//
//	startX = MinSideMargin + max(0, width - 2*MinSideMargin - n*SpacingX) / 2
//	x      = startX + i*SpacingX + (SpacingX/4 if level is even)
//	y      = StartY + level*SpacingY
//
// A zero or negative canvas width degenerates to the fixed side margin.
//
// [Compute] runs both steps and [ComputeLayout] is the single-call form with
// [DefaultOptions].
//
// # Concurrency
//
// All functions are pure: they keep no state between calls and may be used
// from any number of goroutines.
package layout
