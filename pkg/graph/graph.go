package graph

import (
	"github.com/matzehuels/crewboard/pkg/dag"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/layout"
)

// =============================================================================
// Diagram → Layout Conversion
// =============================================================================

// FromDiagram builds a canvas layout from a diagram and its leveling result.
//
// Nodes follow level order. Links are kept only when both endpoints were
// placed; links that close a cycle are flagged Back. Height leaves one level
// of spacing below the last level.
func FromDiagram(d *diagram.Diagram, res layout.Result, width float64, opts layout.Options) Layout {
	opts = opts.WithDefaults()

	out := Layout{
		VizType: VizTypeCanvas,
		Name:    d.Name,
		Width:   width,
		Height:  opts.StartY + float64(len(res.Levels.Levels))*opts.SpacingY,
		Levels:  res.Levels.Levels,
		Output:  res.Output,
		Cyclic:  res.Cyclic,
		Spacing: &opts,
	}

	byKey := make(map[string]diagram.Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if _, dup := byKey[n.Key]; !dup {
			byKey[n.Key] = n
		}
	}

	g := dag.New(nil)
	for li, level := range res.Levels.Levels {
		for _, key := range level {
			src := byKey[key]
			p := res.Positions[key]
			kind := KindAgent
			if key == res.Output {
				kind = KindOutput
			}
			out.Nodes = append(out.Nodes, Node{
				ID:    key,
				Label: src.Label(),
				Kind:  kind,
				Level: li,
				X:     p.X,
				Y:     p.Y,
				Meta:  nodeMeta(src),
			})
			// Assign yields unique keys, so the only rejection is an empty
			// key; its links then fail AddEdge and are skipped below.
			if err := g.AddNode(dag.Node{ID: key}); err != nil {
				continue
			}
		}
	}

	for _, l := range d.Links {
		if err := g.AddEdge(dag.Edge{From: l.From, To: l.To}); err != nil {
			continue
		}
		id := l.ID
		if id == "" {
			id = l.From + "-" + l.To
		}
		out.Edges = append(out.Edges, Edge{ID: id, From: l.From, To: l.To, Label: l.Description})
	}

	back := make(map[[2]string]bool)
	for _, e := range g.BackEdges() {
		back[e] = true
	}
	for i := range out.Edges {
		key := [2]string{out.Edges[i].From, out.Edges[i].To}
		if back[key] {
			out.Edges[i].Back = true
			delete(back, key)
		}
	}

	return out
}

func nodeMeta(n diagram.Node) map[string]any {
	meta := map[string]any{}
	if n.Goal != "" {
		meta["goal"] = n.Goal
	}
	if n.Backstory != "" {
		meta["backstory"] = n.Backstory
	}
	if n.File != "" {
		meta["file"] = n.File
	}
	if len(n.Tools) > 0 {
		meta["tools"] = n.Tools
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
