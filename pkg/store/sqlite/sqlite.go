// Package sqlite stores diagrams in a SQLite database (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS diagrams (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	nodes INTEGER NOT NULL DEFAULT 0,
	links INTEGER NOT NULL DEFAULT 0,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a diagram library backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open sqlite %s", dbPath)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "set sqlite pragma %q", stmt)
		}
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the diagrams table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "migrate schema")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every diagram, sorted by filename.
func (s *Store) List(ctx context.Context) ([]store.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, name, description, nodes, links, updated_at
		FROM diagrams ORDER BY filename`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list diagrams")
	}
	defer rows.Close()

	var entries []store.Entry
	for rows.Next() {
		var (
			e       store.Entry
			updated int64
		)
		if err := rows.Scan(&e.ID, &e.Filename, &e.Name, &e.Description, &e.Nodes, &e.Links, &updated); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan diagram")
		}
		e.UpdatedAt = time.UnixMilli(updated).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list diagrams")
	}
	return entries, nil
}

// Get loads the diagram stored under filename.
func (s *Store) Get(ctx context.Context, filename string) (*diagram.Diagram, error) {
	filename, err := store.FileName(filename)
	if err != nil {
		return nil, err
	}

	var body string
	err = s.db.QueryRowContext(ctx, `SELECT body FROM diagrams WHERE filename = ?`, filename).Scan(&body)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound(filename)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get %s", filename)
	}
	return diagram.Unmarshal([]byte(body))
}

// Save inserts or replaces the diagram. A replaced diagram keeps its ID.
func (s *Store) Save(ctx context.Context, name string, d *diagram.Diagram) (string, error) {
	filename, err := store.FileName(name)
	if err != nil {
		return "", err
	}
	body, err := diagram.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode diagram: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diagrams(id, filename, name, description, nodes, links, body, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			nodes = excluded.nodes,
			links = excluded.links,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		uuid.NewString(), filename, d.Name, d.Description, len(d.Nodes), len(d.Links), string(body), now, now,
	)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filename)
	}
	return filename, nil
}

// Delete removes the diagram stored under filename.
func (s *Store) Delete(ctx context.Context, filename string) error {
	filename, err := store.FileName(filename)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE filename = ?`, filename)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s", filename)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s", filename)
	}
	if n == 0 {
		return store.NotFound(filename)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
