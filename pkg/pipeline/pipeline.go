// Package pipeline provides the core diagram pipeline for crewboard.
//
// This package implements the complete layout → render pipeline used by the
// CLI, the HTTP API and the MCP server. By centralizing this logic, every
// entry point produces the same layouts and artifacts and shares one cache.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: level the diagram and compute canvas positions (and, for
//     nodelink, the Graphviz DOT source)
//  2. Render: generate output in the requested formats (SVG, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    VizType: "canvas",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, d, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Layout only
//	l, err := runner.Layout(ctx, d, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"io"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crewboard/pkg/cache"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and MCP
// =============================================================================

// DefaultCanvasWidth is the editor canvas width in pixels.
const DefaultCanvasWidth = 1280.0

// DefaultVizType is the default visualization type.
const DefaultVizType = graph.VizTypeCanvas

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	VizType     string         `json:"viz_type,omitempty"`
	CanvasWidth float64        `json:"width,omitempty"`
	Spacing     layout.Options `json:"spacing"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Show goals and tools on nodes

	// Refresh bypasses cache reads; fresh results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DiagramHash is the content hash of the input diagram.
	DiagramHash string

	// Layout contains the positioned nodes and edges.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LevelCount int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !graph.ValidVizType(vizType) {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: canvas, nodelink)", vizType)
	}
	return nil
}

// ValidateCanvasWidth checks that a canvas width is a finite, non-negative
// number. Zero selects [DefaultCanvasWidth].
func ValidateCanvasWidth(width float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) || width < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid canvas width: %v (must be a positive number)", width)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.CanvasWidth == 0 {
		o.CanvasWidth = DefaultCanvasWidth
	}
	if o.Spacing == (layout.Options{}) {
		o.Spacing = layout.DefaultOptions()
	} else {
		o.Spacing = o.Spacing.WithDefaults()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if err := ValidateCanvasWidth(o.CanvasWidth); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	return ValidateVizType(o.VizType)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
// DOT output only exists for nodelink layouts.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.IsCanvas() && slices.Contains(o.Formats, FormatDOT) {
		return errors.New(errors.ErrCodeInvalidFormat, "format %q requires viz_type %q", FormatDOT, graph.VizTypeNodelink)
	}
	return nil
}

// IsCanvas returns true if this is a canvas visualization.
func (o *Options) IsCanvas() bool {
	return o.VizType == "" || o.VizType == graph.VizTypeCanvas
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == graph.VizTypeNodelink
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		VizType:       o.VizType,
		Width:         o.CanvasWidth,
		SpacingX:      o.Spacing.SpacingX,
		SpacingY:      o.Spacing.SpacingY,
		StartY:        o.Spacing.StartY,
		MinSideMargin: o.Spacing.MinSideMargin,
		Detailed:      o.IsNodelink() && o.Detailed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
