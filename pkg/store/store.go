package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
)

// Ext is the extension every stored diagram carries.
const Ext = ".json"

// Backend names accepted by [Config].
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// ErrNotFound is returned when no diagram is stored under a filename.
var ErrNotFound = errors.New(errors.ErrCodeDiagramNotFound, "diagram not found")

// Store is a library of named diagrams.
type Store interface {
	// List returns every stored diagram, sorted by filename.
	List(ctx context.Context) ([]Entry, error)

	// Get loads the diagram stored under filename.
	Get(ctx context.Context, filename string) (*diagram.Diagram, error)

	// Save stores d under the filename derived from name, replacing any
	// previous diagram, and returns that filename.
	Save(ctx context.Context, name string, d *diagram.Diagram) (string, error)

	// Delete removes the diagram stored under filename.
	Delete(ctx context.Context, filename string) error

	// Close releases the backend's resources.
	Close() error
}

// Entry summarizes a stored diagram.
type Entry struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Nodes       int       `json:"nodes"`
	Links       int       `json:"links"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEntry summarizes d as stored under filename.
func NewEntry(id, filename string, d *diagram.Diagram, updated time.Time) Entry {
	e := Entry{ID: id, Filename: filename, UpdatedAt: updated}
	if d != nil {
		e.Name = d.Name
		e.Description = d.Description
		e.Nodes = len(d.Nodes)
		e.Links = len(d.Links)
	}
	return e
}

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"` // file, sqlite or mongo

	Dir        string `toml:"dir"`         // FileStore directory
	SQLitePath string `toml:"sqlite_path"` // SQLite database file

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// FileName derives the stored filename from a diagram name or filename.
// Surrounding whitespace is trimmed, inner spaces become underscores and
// ".json" is appended if missing. Names that could escape the library
// directory are rejected with ErrCodeInvalidName.
func FileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateDiagramName(name); err != nil {
		return "", err
	}
	name = strings.ReplaceAll(name, " ", "_")
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	return name, nil
}

// DisplayName turns a stored filename back into a readable name.
func DisplayName(filename string) string {
	return strings.ReplaceAll(strings.TrimSuffix(filename, Ext), "_", " ")
}

// NotFound wraps ErrNotFound with the filename that was looked up.
func NotFound(filename string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, filename)
}
