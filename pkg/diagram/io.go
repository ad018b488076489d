package diagram

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/crewboard/pkg/errors"
)

// Format is a diagram file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Anything other
// than .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Unmarshal decodes a JSON diagram.
func Unmarshal(data []byte) (*Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode diagram")
	}
	return &d, nil
}

// Read decodes a diagram in the given format from r.
func Read(r io.Reader, format Format) (*Diagram, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read diagram: %w", err)
	}
	if format != FormatYAML {
		return Unmarshal(data)
	}
	var d Diagram
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml diagram")
	}
	return &d, nil
}

// ReadFile loads a diagram, choosing the format from the file extension.
// A diagram without a name takes the file's base name.
func ReadFile(path string) (*Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeDiagramNotFound, err, "diagram %s", path)
		}
		return nil, fmt.Errorf("open diagram: %w", err)
	}
	defer f.Close()

	d, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Marshal encodes a diagram as indented JSON.
func Marshal(d *Diagram) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Write encodes a diagram as indented JSON to w.
func Write(d *Diagram, w io.Writer) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteFile writes a diagram as indented JSON to path.
func WriteFile(d *Diagram, path string) error {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Hash returns a stable content hash of the diagram, suitable for cache keys.
// The name is included since it ends up in rendered output.
func Hash(d *Diagram) string {
	data, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
