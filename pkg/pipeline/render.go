package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/render/canvas"
	"github.com/matzehuels/crewboard/pkg/render/nodelink"
)

// RenderFromLayout renders output from a graph.Layout.
// The layout's own viz type decides the renderer, so a nodelink layout read
// back from JSON renders as nodelink regardless of opts.VizType.
func RenderFromLayout(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if l.IsNodelink() {
		return renderNodelink(ctx, l, opts)
	}
	return renderCanvas(l, opts)
}

// RenderFromLayoutData renders output from serialized layout data.
// This is useful when the layout was computed elsewhere (e.g., cached).
func RenderFromLayoutData(ctx context.Context, data []byte, opts Options) (map[string][]byte, error) {
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return RenderFromLayout(ctx, l, opts)
}

// renderCanvas generates canvas outputs.
func renderCanvas(l graph.Layout, opts Options) (map[string][]byte, error) {
	var svgOpts []canvas.Option
	if opts.Detailed {
		svgOpts = append(svgOpts, canvas.WithDetails())
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			artifacts[format] = canvas.RenderSVG(l, svgOpts...)
		case FormatJSON:
			data, err := graph.MarshalLayout(l)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", format, err)
			}
			artifacts[format] = data
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported canvas format: %s", format)
		}
	}
	return artifacts, nil
}

// renderNodelink generates nodelink outputs from a layout with a DOT string.
func renderNodelink(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if l.DOT == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nodelink layout missing DOT string")
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, l.DOT)
		case FormatDOT:
			data = []byte(l.DOT)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
