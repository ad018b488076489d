package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/crewboard/pkg/dag"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/layout"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds each agent's goal and tools to its label.
	// When false, only the role (or key) is shown.
	Detailed bool
}

// ToDOT converts a diagram to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Every level of lv becomes a rank=same group so Graphviz keeps the tiers
// computed by the leveler. The output node is drawn as an ellipse. Links that
// close a cycle are dashed and excluded from ranking (constraint=false).
// Links with an unknown endpoint are skipped.
func ToDOT(d *diagram.Diagram, lv layout.Levels, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=14];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	g := dag.New(nil)
	for _, n := range d.Nodes {
		if g.AddNode(dag.Node{ID: n.Key}) != nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, lv.Output, opts.Detailed), ", "))
	}

	if len(lv.Levels) > 0 {
		buf.WriteString("\n")
	}
	for _, level := range lv.Levels {
		ids := make([]string, len(level))
		for i, k := range level {
			ids[i] = strconv.Quote(k)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	var links []diagram.Link
	for _, l := range d.Links {
		if g.AddEdge(dag.Edge{From: l.From, To: l.To}) == nil {
			links = append(links, l)
		}
	}
	back := make(map[[2]string]int)
	for _, e := range g.BackEdges() {
		back[e]++
	}

	buf.WriteString("\n")
	for _, l := range links {
		var attrs []string
		if l.Description != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", wrap(l.Description, 30)))
		}
		key := [2]string{l.From, l.To}
		if back[key] > 0 {
			back[key]--
			attrs = append(attrs, "style=dashed", "color=firebrick", "constraint=false")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.From, l.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.From, l.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n diagram.Node, detailed bool) string {
	label := n.Label()
	if !detailed || n.IsOutput() {
		return label
	}
	parts := []string{label}
	if n.Goal != "" {
		parts = append(parts, wrap(n.Goal, 32))
	}
	if len(n.Tools) > 0 {
		parts = append(parts, "tools: "+strings.Join(n.Tools, ", "))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n diagram.Node, output string, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.Key == output {
		attrs = append(attrs, "shape=ellipse", "fillcolor=\"#e6fcf5\"", "color=\"#0ca678\"")
	}
	return attrs
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) string {
	words := strings.Fields(s)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}

// Export wraps a DOT string into a nodelink layout. Shared fields (name,
// size, nodes, edges, levels) are copied from base, usually the canvas
// layout of the same diagram.
func Export(dot string, base graph.Layout) graph.Layout {
	l := base
	l.VizType = graph.VizTypeNodelink
	l.DOT = dot
	l.Engine = graph.DefaultEngine
	l.Spacing = nil
	return l
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
