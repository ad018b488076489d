package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// LayoutKeyOpts holds every option that changes a computed layout.
type LayoutKeyOpts struct {
	VizType       string  `json:"viz_type"`
	Width         float64 `json:"width"`
	SpacingX      float64 `json:"spacing_x"`
	SpacingY      float64 `json:"spacing_y"`
	StartY        float64 `json:"start_y"`
	MinSideMargin float64 `json:"min_side_margin"`
	Detailed      bool    `json:"detailed,omitempty"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// LayoutKey returns the key of the layout of a diagram.
	LayoutKey(diagramHash string, opts LayoutKeyOpts) string
	// ArtifactKey returns the key of a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the diagram hash together with the layout options.
func (DefaultKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", diagramHash, opts)
}

// ArtifactKey hashes the layout hash together with the artifact options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// hashKey returns "<prefix>:<sha256 of the JSON-encoded parts>".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
