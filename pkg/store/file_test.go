package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/observability"
	"github.com/matzehuels/crewboard/pkg/store"
	"github.com/matzehuels/crewboard/pkg/store/storetest"
)

func TestFileStore_Contract(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	storetest.RunContract(t, s)
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	require.NoError(t, err)

	filename, err := s.Save(ctx, "My crew", storetest.Diagram("My crew"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"name\": \"My crew\"", "diagrams are stored as indented JSON")

	// Non-JSON files and directories are ignored by List.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))
	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filename, entries[0].Filename)
}

func TestFileStore_InvalidJSON(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))
	_, err = s.Get(ctx, "broken")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "error = %v", err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1, "unreadable diagrams are still listed")
	assert.Zero(t, entries[0].Nodes)
}

type recordingStoreHooks struct {
	ops []string
}

func (h *recordingStoreHooks) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.ops = append(h.ops, backend+":"+op+":"+outcome)
}

func TestInstrument(t *testing.T) {
	defer observability.Reset()
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := store.Instrument(fs, "file")
	ctx := context.Background()

	_, err = s.Save(ctx, "crew", storetest.Diagram("crew"))
	require.NoError(t, err)
	_, err = s.Get(ctx, "crew")
	require.NoError(t, err)
	_, err = s.List(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "crew"))
	assert.ErrorIs(t, s.Delete(ctx, "crew"), store.ErrNotFound)

	assert.Equal(t, []string{
		"file:save:ok",
		"file:get:ok",
		"file:list:ok",
		"file:delete:ok",
		"file:delete:error",
	}, hooks.ops)
	assert.Equal(t, "file", s.Backend())
}
