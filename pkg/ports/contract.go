package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contractDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	collection := "contract"
	id := "doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDoc{Name: "alpha", Count: 42}

		err := store.Save(ctx, collection, id, doc)
		require.NoError(t, err, "Save should not return error")

		var loaded contractDoc
		err = store.Load(ctx, collection, id, &loaded)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.Name, loaded.Name)
		assert.Equal(t, doc.Count, loaded.Count)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		var loaded contractDoc
		err := store.Load(ctx, collection, "non-existent-"+id, &loaded)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, collection, id, contractDoc{Name: "beta"}))

		err := store.Delete(ctx, collection, id)
		require.NoError(t, err, "Delete should not return error")

		var loaded contractDoc
		err = store.Load(ctx, collection, id, &loaded)
		assert.ErrorIs(t, err, ErrNotFound, "Load after Delete should return ErrNotFound")

		// Deleting again must be a no-op.
		assert.NoError(t, store.Delete(ctx, collection, id))
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, collection, id1, contractDoc{Name: "one"})
		_ = store.Save(ctx, collection, id2, contractDoc{Name: "two"})

		defer func() {
			_ = store.Delete(ctx, collection, id1)
			_ = store.Delete(ctx, collection, id2)
		}()

		ids, err := store.List(ctx, collection)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("IDs never collide with store bookkeeping", func(t *testing.T) {
		// Backends that keep per-collection metadata (e.g. an index key)
		// must still accept "index" as an ordinary document ID.
		require.NoError(t, store.Save(ctx, collection, "index", contractDoc{Name: "idx", Count: 7}))
		defer func() { _ = store.Delete(ctx, collection, "index") }()

		var loaded contractDoc
		require.NoError(t, store.Load(ctx, collection, "index", &loaded))
		assert.Equal(t, "idx", loaded.Name)

		ids, err := store.List(ctx, collection)
		require.NoError(t, err)
		assert.Contains(t, ids, "index")
	})

	t.Run("Collections are isolated", func(t *testing.T) {
		other := collection + "-other"
		require.NoError(t, store.Save(ctx, other, id, contractDoc{Name: "gamma"}))
		defer func() { _ = store.Delete(ctx, other, id) }()

		var loaded contractDoc
		err := store.Load(ctx, collection, id, &loaded)
		assert.ErrorIs(t, err, ErrNotFound, "document must not leak across collections")
	})
}
