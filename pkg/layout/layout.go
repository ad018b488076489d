package layout

// Node is a diagram node as seen by the leveler.
type Node struct {
	Key    string // Unique node key
	Output bool   // Marks the terminal output node
}

// Edge is a directed task link: From produces input consumed by To.
type Edge struct {
	From string
	To   string
}

// Position is the canvas coordinate of a node's anchor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options holds the spacing constants used by [Place].
type Options struct {
	SpacingX      float64 `json:"spacing_x" toml:"spacing_x"`             // Horizontal distance between nodes of a level
	SpacingY      float64 `json:"spacing_y" toml:"spacing_y"`             // Vertical distance between levels
	StartY        float64 `json:"start_y" toml:"start_y"`                 // Y of the first level
	MinSideMargin float64 `json:"min_side_margin" toml:"min_side_margin"` // Margin kept free on both sides
}

// Default spacing constants, matching the editor canvas.
const (
	DefaultSpacingX      = 350
	DefaultSpacingY      = 300
	DefaultStartY        = 150
	DefaultMinSideMargin = 200
)

// DefaultOptions returns the editor's spacing constants.
func DefaultOptions() Options {
	return Options{
		SpacingX:      DefaultSpacingX,
		SpacingY:      DefaultSpacingY,
		StartY:        DefaultStartY,
		MinSideMargin: DefaultMinSideMargin,
	}
}

// WithDefaults returns o with every non-positive spacing replaced by its default.
// A zero StartY or MinSideMargin is kept since both are valid settings; only
// negative values are reset.
func (o Options) WithDefaults() Options {
	if o.SpacingX <= 0 {
		o.SpacingX = DefaultSpacingX
	}
	if o.SpacingY <= 0 {
		o.SpacingY = DefaultSpacingY
	}
	if o.StartY < 0 {
		o.StartY = DefaultStartY
	}
	if o.MinSideMargin < 0 {
		o.MinSideMargin = DefaultMinSideMargin
	}
	return o
}

// Levels is the result of [Assign].
type Levels struct {
	// Levels lists node keys per level ordinal, top to bottom. When Output is
	// set, the last level is exactly []string{Output}.
	Levels [][]string `json:"levels"`
	// Output is the key of the output node, or empty if the diagram has none.
	Output string `json:"output,omitempty"`
	// Cyclic reports that no start node existed and all regular nodes were
	// placed on one flat level.
	Cyclic bool `json:"cyclic,omitempty"`
}

// LevelOf returns the level ordinal of key, or -1 if key is not assigned.
func (lv Levels) LevelOf(key string) int {
	for i, level := range lv.Levels {
		for _, k := range level {
			if k == key {
				return i
			}
		}
	}
	return -1
}

// Len returns the number of assigned nodes.
func (lv Levels) Len() int {
	n := 0
	for _, level := range lv.Levels {
		n += len(level)
	}
	return n
}

// Result bundles the level assignment with the computed positions.
type Result struct {
	Levels
	Positions map[string]Position `json:"positions"`
}

// Assign partitions nodes into ordered levels.
//
// Keys are opaque: the empty string is a key like any other. Duplicate keys
// are collapsed to their first occurrence. The first node flagged Output is the output node;
// further flagged nodes are leveled like any other node. Edges are used only
// when both endpoints are known nodes.
func Assign(nodes []Node, edges []Edge) Levels {
	var (
		keys   = make([]string, 0, len(nodes))
		known  = make(map[string]bool, len(nodes))
		output string
	)
	for _, n := range nodes {
		if known[n.Key] {
			continue
		}
		known[n.Key] = true
		keys = append(keys, n.Key)
		if n.Output && output == "" {
			output = n.Key
		}
	}

	adj := make(map[string][]string, len(keys))
	indeg := make(map[string]int, len(keys))
	for _, e := range edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		indeg[e.To]++
	}

	var frontier []string
	for _, k := range keys {
		if k != output && indeg[k] == 0 {
			frontier = append(frontier, k)
		}
	}

	lv := Levels{Output: output}
	if len(frontier) == 0 {
		for _, k := range keys {
			if k != output {
				frontier = append(frontier, k)
			}
		}
		lv.Cyclic = len(frontier) > 0
	}

	visited := make(map[string]bool, len(keys))
	for _, k := range frontier {
		visited[k] = true
	}
	for len(frontier) > 0 {
		lv.Levels = append(lv.Levels, frontier)
		var next []string
		for _, k := range frontier {
			for _, child := range adj[k] {
				if child == output || visited[child] {
					continue
				}
				visited[child] = true
				next = append(next, child)
			}
		}
		frontier = next
	}

	var orphans []string
	for _, k := range keys {
		if k != output && !visited[k] {
			orphans = append(orphans, k)
		}
	}
	if len(orphans) > 0 {
		if len(lv.Levels) == 0 {
			lv.Levels = append(lv.Levels, nil)
		}
		last := len(lv.Levels) - 1
		lv.Levels[last] = append(lv.Levels[last], orphans...)
	}

	if output != "" {
		lv.Levels = append(lv.Levels, []string{output})
	}
	return lv
}

// Place computes one position per assigned node.
// canvasWidth is only used for centering; non-positive widths fall back to
// the side margin.
func Place(lv Levels, canvasWidth float64, opts Options) map[string]Position {
	opts = opts.WithDefaults()
	available := canvasWidth - 2*opts.MinSideMargin
	offset := opts.SpacingX / 4

	pos := make(map[string]Position, lv.Len())
	for li, level := range lv.Levels {
		levelWidth := float64(len(level)) * opts.SpacingX
		startX := opts.MinSideMargin + max(0, available-levelWidth)/2
		shift := 0.0
		if li%2 == 0 {
			shift = offset
		}
		y := opts.StartY + float64(li)*opts.SpacingY
		for i, key := range level {
			pos[key] = Position{
				X: startX + float64(i)*opts.SpacingX + shift,
				Y: y,
			}
		}
	}
	return pos
}

// Compute runs [Assign] followed by [Place].
func Compute(nodes []Node, edges []Edge, canvasWidth float64, opts Options) Result {
	lv := Assign(nodes, edges)
	return Result{Levels: lv, Positions: Place(lv, canvasWidth, opts)}
}

// ComputeLayout maps every node key to its canvas position using
// [DefaultOptions]. It never fails.
func ComputeLayout(nodes []Node, edges []Edge, canvasWidth float64) map[string]Position {
	return Compute(nodes, edges, canvasWidth, DefaultOptions()).Positions
}
