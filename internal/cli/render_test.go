package cli

import (
	"path/filepath"
	"testing"

	"github.com/matzehuels/crewboard/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,json,dot", []string{"svg", "json", "dot"}},
		{"spaces and empties", " svg , ,json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid json", []string{"json"}, false},
		{"valid dot", []string{"dot"}, false},
		{"valid all", []string{"svg", "json", "dot"}, false},
		{"invalid format", []string{"pdf"}, true},
		{"mixed valid invalid", []string{"svg", "invalid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "next to input",
			input:   filepath.Join("crews", "research.json"),
			formats: []string{"svg"},
			want:    map[string]string{"svg": filepath.Join("crews", "research.svg")},
		},
		{
			name:    "single format uses output verbatim",
			input:   "research.json",
			output:  "board.image",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "board.image"},
		},
		{
			name:    "several formats share the output base",
			input:   "research.json",
			output:  filepath.Join("out", "board.svg"),
			formats: []string{"svg", "json"},
			want: map[string]string{
				"svg":  filepath.Join("out", "board.svg"),
				"json": filepath.Join("out", "board.json"),
			},
		},
		{
			name:    "unknown extension is kept in the base",
			input:   "research.json",
			output:  "board.v2",
			formats: []string{"svg", "dot"},
			want:    map[string]string{"svg": "board.v2.svg", "dot": "board.v2.dot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	if got := basePath("crew.yaml"); got != "crew" {
		t.Errorf("basePath(crew.yaml) = %q", got)
	}
	if got := basePath("crew"); got != "crew" {
		t.Errorf("basePath(crew) = %q", got)
	}
}
