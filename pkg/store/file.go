package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
)

// FileStore keeps one JSON file per diagram in a directory.
type FileStore struct {
	dir string
}

// NewFileStore opens a store rooted at dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create diagram directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// List returns every .json file in the directory. Files that do not decode
// as diagrams are still listed, with empty counts.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list %s", s.dir)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), Ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		d, _ := diagram.ReadFile(filepath.Join(s.dir, f.Name()))
		entries = append(entries, NewEntry(f.Name(), f.Name(), d, info.ModTime().UTC()))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	return entries, nil
}

// Get loads a diagram file.
func (s *FileStore) Get(ctx context.Context, filename string) (*diagram.Diagram, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, NotFound(filepath.Base(path))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s", filepath.Base(path))
	}
	return diagram.Unmarshal(data)
}

// Save writes d as indented JSON. The file is written next to its target
// and renamed into place.
func (s *FileStore) Save(ctx context.Context, name string, d *diagram.Diagram) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := diagram.Write(d, &buf); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filepath.Base(path))
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filepath.Base(path))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save %s", filepath.Base(path))
	}
	return filepath.Base(path), nil
}

// Delete removes a diagram file.
func (s *FileStore) Delete(ctx context.Context, filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return NotFound(filepath.Base(path))
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %s", filepath.Base(path))
	}
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(name string) (string, error) {
	filename, err := FileName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filename), nil
}

var _ Store = (*FileStore)(nil)
