package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Visualization types.
const (
	VizTypeCanvas   = "canvas"
	VizTypeNodelink = "nodelink"
)

// Node kinds.
const (
	KindAgent  = "agent"
	KindOutput = "output"
)

// DefaultEngine is the Graphviz engine used for nodelink layouts.
const DefaultEngine = "dot"

// ValidVizType reports whether t names a supported visualization.
func ValidVizType(t string) bool {
	return t == VizTypeCanvas || t == VizTypeNodelink
}

// =============================================================================
// Node - Positioned Diagram Node
// =============================================================================

// Node is a diagram node with its level and canvas position.
type Node struct {
	ID    string         `json:"id"`
	Label string         `json:"label,omitempty"` // Display label (defaults to ID)
	Kind  string         `json:"kind"`            // "agent" or "output"
	Level int            `json:"level"`           // Level ordinal, top to bottom
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// IsOutput returns true if this is the output node.
func (n *Node) IsOutput() bool { return n.Kind == KindOutput }

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Task Link
// =============================================================================

// Edge is a task link between two positioned nodes.
type Edge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"` // Task description
	Back  bool   `json:"back,omitempty"`  // Closes a cycle
}
