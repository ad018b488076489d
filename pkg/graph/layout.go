package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/crewboard/pkg/layout"
)

// =============================================================================
// Layout - Unified Visualization Format
// =============================================================================

// Layout is the unified serialization format for all visualizations.
//
// This is a discriminated union type - check VizType to determine which
// fields are populated:
//
//	Canvas ("canvas"):
//	  - Nodes carry the editor positions computed by the leveler
//	  - Spacing: the spacing constants used for placement
//
//	Nodelink ("nodelink"):
//	  - DOT: Graphviz DOT string for rendering
//	  - Engine: Graphviz layout engine (e.g., "dot")
//
// Shared fields (both types):
//   - Name: diagram name
//   - Width, Height: frame dimensions
//   - Nodes, Edges: positioned nodes and task links
//   - Levels, Output, Cyclic: the level assignment
type Layout struct {
	// Discriminator
	VizType string `json:"viz_type"`

	// Common
	Name   string  `json:"name,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Graph structure (shared)
	Nodes  []Node     `json:"nodes,omitempty"`
	Edges  []Edge     `json:"edges,omitempty"`
	Levels [][]string `json:"levels,omitempty"`
	Output string     `json:"output,omitempty"`
	Cyclic bool       `json:"cyclic,omitempty"`

	// Canvas-specific
	Spacing *layout.Options `json:"spacing,omitempty"`

	// Nodelink-specific
	DOT    string `json:"dot,omitempty"`
	Engine string `json:"engine,omitempty"`
}

// IsCanvas returns true if this is a canvas layout.
func (l *Layout) IsCanvas() bool { return l.VizType == VizTypeCanvas }

// IsNodelink returns true if this is a nodelink layout.
func (l *Layout) IsNodelink() bool { return l.VizType == VizTypeNodelink }

// Node returns the positioned node with the given ID.
func (l *Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that required fields are present for the viz type.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.VizType == "" {
		l.VizType = VizTypeCanvas
	}
	if !ValidVizType(l.VizType) {
		return Layout{}, fmt.Errorf("unknown viz type %q", l.VizType)
	}

	if l.IsCanvas() && len(l.Nodes) == 0 && len(l.Levels) > 0 {
		return Layout{}, fmt.Errorf("canvas layout must contain nodes")
	}
	if l.IsNodelink() && l.DOT == "" {
		return Layout{}, fmt.Errorf("nodelink layout must contain DOT string")
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
