package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude-collective/collective/internal/adapters/file"
	"github.com/claude-collective/collective/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := file.New("")
	assert.Equal(t, ".claude-collective", store.BasePath)
}

func TestFileStore_RejectsPathEscape(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	err := store.Save(ctx, "metrics", "../outside", map[string]string{"a": "b"})
	assert.Error(t, err)

	err = store.Save(ctx, "metrics/nested", "doc", map[string]string{"a": "b"})
	assert.Error(t, err)

	var out map[string]string
	err = store.Load(ctx, "metrics", `..\windows`, &out)
	assert.Error(t, err)
}

func TestFileStore_ListSkipsTempFiles(t *testing.T) {
	base := t.TempDir()
	store := file.New(base)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "experiments", "exp-1", map[string]int{"n": 1}))

	// Simulate a crashed Save leaving a temp file behind.
	leftover := filepath.Join(base, "experiments", "tmp-exp-2-123.json")
	require.NoError(t, os.WriteFile(leftover, []byte("{"), 0o644))

	ids, err := store.List(ctx, "experiments")
	require.NoError(t, err)
	assert.Equal(t, []string{"exp-1"}, ids)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "queue", "snapshot", map[string]int{"v": 1}))
	require.NoError(t, store.Save(ctx, "queue", "snapshot", map[string]int{"v": 2}))

	var out map[string]int
	require.NoError(t, store.Load(ctx, "queue", "snapshot", &out))
	assert.Equal(t, 2, out["v"])
}
