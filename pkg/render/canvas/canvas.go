// Package canvas renders positioned crew diagrams as standalone SVG.
//
// The drawing mirrors the editor canvas: each node is a rounded card centered
// on the position computed by the leveler, task links run from the bottom of
// the producing agent to the top of the consuming one, and links that close
// a cycle are drawn as dashed curves.
//
//	svg := canvas.RenderSVG(l, canvas.WithDetails())
package canvas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/crewboard/pkg/graph"
)

// Card size and frame padding.
const (
	DefaultNodeWidth  = 240.0
	DefaultNodeHeight = 110.0

	framePadding = 40.0
	maxLabelLen  = 28
	maxDetailLen = 36
)

const (
	agentFill  = "#eef4ff"
	agentLine  = "#3b5bdb"
	outputFill = "#e6fcf5"
	outputLine = "#0ca678"
	edgeColor  = "#495057"
	backColor  = "#e03131"
)

// Option configures [RenderSVG].
type Option func(*renderer)

type renderer struct {
	nodeW, nodeH float64
	details      bool
	labels       bool
}

// WithNodeSize overrides the card size.
func WithNodeSize(w, h float64) Option {
	return func(r *renderer) {
		if w > 0 {
			r.nodeW = w
		}
		if h > 0 {
			r.nodeH = h
		}
	}
}

// WithDetails adds each agent's goal below its label.
func WithDetails() Option { return func(r *renderer) { r.details = true } }

// WithoutEdgeLabels hides task descriptions on links.
func WithoutEdgeLabels() Option { return func(r *renderer) { r.labels = false } }

// RenderSVG draws a canvas layout from its node positions. Any DOT source on
// the layout is ignored; package nodelink renders that through Graphviz.
func RenderSVG(l graph.Layout, opts ...Option) []byte {
	r := renderer{nodeW: DefaultNodeWidth, nodeH: DefaultNodeHeight, labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := r.frame(l)
	pos := make(map[string]graph.Node, len(l.Nodes))
	for _, n := range l.Nodes {
		pos[n.ID] = n
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	if l.Name != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(l.Name))
	}
	renderDefs(&buf)

	for _, e := range l.Edges {
		from, okF := pos[e.From]
		to, okT := pos[e.To]
		if !okF || !okT {
			continue
		}
		r.renderEdge(&buf, e, from, to)
	}
	for _, n := range l.Nodes {
		r.renderNode(&buf, n)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// frame grows the layout frame so that every card fits.
func (r renderer) frame(l graph.Layout) (float64, float64) {
	w, h := l.Width, l.Height
	for _, n := range l.Nodes {
		w = math.Max(w, n.X+r.nodeW/2+framePadding)
		h = math.Max(h, n.Y+r.nodeH/2+framePadding)
	}
	return math.Max(w, r.nodeW+2*framePadding), math.Max(h, r.nodeH+2*framePadding)
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	for _, m := range []struct{ id, color string }{{"arrow", edgeColor}, {"arrow-back", backColor}} {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">`+
			`<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker>`+"\n", m.id, m.color)
	}
	buf.WriteString("  </defs>\n")
}

func (r renderer) renderEdge(buf *bytes.Buffer, e graph.Edge, from, to graph.Node) {
	x1, y1 := from.X, from.Y+r.nodeH/2
	x2, y2 := to.X, to.Y-r.nodeH/2

	if e.Back || to.Level <= from.Level {
		// Route around the cards: leave from the side, come back in from the side.
		x1, y1 = from.X+r.nodeW/2, from.Y
		x2, y2 = to.X+r.nodeW/2, to.Y
		bend := math.Max(x1, x2) + r.nodeW/2
		color, marker := edgeColor, "arrow"
		dash := ""
		if e.Back {
			color, marker, dash = backColor, "arrow-back", ` stroke-dasharray="8 6"`
		}
		fmt.Fprintf(buf, `  <path id="edge-%s" class="edge" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" fill="none" stroke="%s" stroke-width="2"%s marker-end="url(#%s)"/>`+"\n",
			escape(e.ID), x1, y1, bend, y1, bend, y2, x2, y2, color, dash, marker)
		r.renderEdgeLabel(buf, e, bend, (y1+y2)/2)
		return
	}

	fmt.Fprintf(buf, `  <line id="edge-%s" class="edge" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
		escape(e.ID), x1, y1, x2, y2, edgeColor)
	r.renderEdgeLabel(buf, e, (x1+x2)/2, (y1+y2)/2)
}

func (r renderer) renderEdgeLabel(buf *bytes.Buffer, e graph.Edge, x, y float64) {
	if !r.labels || e.Label == "" {
		return
	}
	fmt.Fprintf(buf, `  <text class="edge-label" x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="13" fill="%s" paint-order="stroke" stroke="white" stroke-width="4">%s</text>`+"\n",
		x, y, edgeColor, escape(truncate(e.Label, maxDetailLen)))
}

func (r renderer) renderNode(buf *bytes.Buffer, n graph.Node) {
	fill, line := agentFill, agentLine
	if n.IsOutput() {
		fill, line = outputFill, outputLine
	}
	x, y := n.X-r.nodeW/2, n.Y-r.nodeH/2

	fmt.Fprintf(buf, `  <g id="node-%s" class="node %s">`+"\n", escape(n.ID), n.Kind)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="14" ry="14" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		x, y, r.nodeW, r.nodeH, fill, line)

	labelY := n.Y + 6
	goal, _ := n.Meta["goal"].(string)
	showGoal := r.details && goal != "" && !n.IsOutput()
	if showGoal {
		labelY = n.Y - 8
	}
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="18" font-weight="bold" fill="#212529">%s</text>`+"\n",
		n.X, labelY, escape(truncate(n.DisplayLabel(), maxLabelLen)))
	if showGoal {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#495057">%s</text>`+"\n",
			n.X, n.Y+18, escape(truncate(goal, maxDetailLen)))
	}
	buf.WriteString("  </g>\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-2]) + ".."
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
