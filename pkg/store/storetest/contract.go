// Package storetest provides a behavioral contract for store.Store
// implementations.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/store"
)

// Diagram returns a small two-agent diagram named name.
func Diagram(name string) *diagram.Diagram {
	return &diagram.Diagram{
		Name:        name,
		Description: "contract fixture",
		Nodes: []diagram.Node{
			{Key: "researcher", Role: "Researcher", Goal: "Find sources", Tools: []string{"search"}},
			{Key: "writer", Role: "Writer", Tools: []string{}},
			{Key: "output", Role: "Output", Tools: []string{}},
		},
		Links: []diagram.Link{
			{ID: "l1", From: "researcher", To: "writer", Description: "Collect notes", ExpectedOutput: "Notes"},
			{ID: "l2", From: "writer", To: "output", Description: "Write report"},
		},
		ChatInput: "Write about Go",
	}
}

// RunContract verifies that s behaves like a diagram library. The store
// should start empty.
func RunContract(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("Save and Get", func(t *testing.T) {
		d := Diagram("Research crew")
		filename, err := s.Save(ctx, "Research crew", d)
		require.NoError(t, err)
		assert.Equal(t, "Research_crew.json", filename)

		loaded, err := s.Get(ctx, filename)
		require.NoError(t, err)
		assert.Equal(t, d, loaded)

		// Lookups accept the name without extension.
		loaded, err = s.Get(ctx, "Research_crew")
		require.NoError(t, err)
		assert.Equal(t, d.Name, loaded.Name)

		require.NoError(t, s.Delete(ctx, filename))
	})

	t.Run("Save replaces", func(t *testing.T) {
		_, err := s.Save(ctx, "replace me", Diagram("first"))
		require.NoError(t, err)
		filename, err := s.Save(ctx, "replace me", Diagram("second"))
		require.NoError(t, err)

		loaded, err := s.Get(ctx, filename)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Name)

		entries, err := s.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, e := range entries {
			if e.Filename == filename {
				count++
			}
		}
		assert.Equal(t, 1, count, "a replaced diagram must be listed once")

		require.NoError(t, s.Delete(ctx, filename))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := s.Get(ctx, "missing.json")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.True(t, errors.Is(err, errors.ErrCodeDiagramNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		filename, err := s.Save(ctx, "to delete", Diagram("to delete"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, filename))

		_, err = s.Get(ctx, filename)
		assert.ErrorIs(t, err, store.ErrNotFound, "Get after Delete should return ErrNotFound")

		err = s.Delete(ctx, filename)
		assert.ErrorIs(t, err, store.ErrNotFound, "deleting twice should return ErrNotFound")
	})

	t.Run("List", func(t *testing.T) {
		_, err := s.Save(ctx, "b crew", Diagram("B"))
		require.NoError(t, err)
		_, err = s.Save(ctx, "a crew", Diagram("A"))
		require.NoError(t, err)
		defer func() {
			_ = s.Delete(ctx, "a_crew.json")
			_ = s.Delete(ctx, "b_crew.json")
		}()

		entries, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a_crew.json", entries[0].Filename)
		assert.Equal(t, "b_crew.json", entries[1].Filename)
		assert.Equal(t, "A", entries[0].Name)
		assert.Equal(t, 3, entries[0].Nodes)
		assert.Equal(t, 2, entries[0].Links)
		assert.NotEmpty(t, entries[0].ID)
		assert.False(t, entries[0].UpdatedAt.IsZero())
	})

	t.Run("Invalid names", func(t *testing.T) {
		for _, name := range []string{"", "  ", "../escape", "a/b", ".hidden"} {
			_, err := s.Save(ctx, name, Diagram("x"))
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidName), "Save(%q) error = %v", name, err)
		}
	})
}
