package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds diagram names and filenames.
const maxNameLength = 256

// ValidateDiagramName validates a diagram name or filename for safety.
// Names end up as file names and database keys, so anything that could
// escape the library directory is rejected:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No hidden files (leading dot)
//   - Maximum length of 256 characters
func ValidateDiagramName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "diagram name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "diagram name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "diagram name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "diagram name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "diagram name cannot contain path traversal sequences (..)")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "diagram name cannot be a hidden file")
	}

	return nil
}

// ValidateNodeKey validates a diagram node key.
// Keys are opaque, but they must be non-empty and printable since they are
// used as DOT identifiers and JSON map keys.
func ValidateNodeKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidDiagram, "node key cannot be empty")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDiagram, "node key %q contains control characters", key)
		}
	}
	return nil
}
