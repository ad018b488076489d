// Package backends opens any diagram store from a [store.Config].
//
// This package exists to break import cycles: the backend packages (sqlite,
// mongo) import pkg/store, so pkg/store cannot import them back. Consumers
// that need to pick a backend at runtime import this package instead.
package backends

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/store"
	"github.com/matzehuels/crewboard/pkg/store/mongo"
	"github.com/matzehuels/crewboard/pkg/store/sqlite"
)

// Names lists the supported backends.
var Names = []string{store.BackendFile, store.BackendSQLite, store.BackendMongo}

// Open opens the backend named by cfg.Backend (file when empty) and wraps it
// with [store.Instrument].
func Open(ctx context.Context, cfg store.Config) (*store.Instrumented, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = store.BackendFile
	}

	var (
		s   store.Store
		err error
	)
	switch backend {
	case store.BackendFile:
		if cfg.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "file store needs a directory")
		}
		s, err = store.NewFileStore(cfg.Dir)
	case store.BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "sqlite store needs a database path")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "create database directory")
		}
		s, err = sqlite.Open(ctx, cfg.SQLitePath)
	case store.BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mongo store needs a URI")
		}
		s, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q (must be one of: file, sqlite, mongo)", backend)
	}
	if err != nil {
		return nil, err
	}
	return store.Instrument(s, backend), nil
}
