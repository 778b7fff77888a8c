package agent_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/claude-collective/collective/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAgent(t *testing.T, dir, file, name, routes string) {
	t.Helper()
	content := "---\nname: " + name + "\ndescription: test agent\n---\n" + routes + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeAgent(t, dir, "hub.md", "routing-agent", "ROUTE TO: @worker")
	writeAgent(t, dir, "worker.md", "worker", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# docs"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	r, err := agent.LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has("routing-agent"))
	assert.True(t, r.Has("worker"))

	def, err := r.Get("routing-agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"worker"}, def.Routes)
	assert.NotEmpty(t, def.FilePath)
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	r, err := agent.LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeAgent(t, dir, "a.md", "same", "")
	writeAgent(t, dir, "b.md", "same", "")

	_, err := agent.LoadDir(dir)
	assert.ErrorContains(t, err, "duplicate agent name")
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := agent.NewRegistry()
	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, agent.ErrAgentNotFound)
}

func TestRegistry_RoutingTable(t *testing.T) {
	r := agent.NewRegistry()
	require.NoError(t, r.Add(&agent.Definition{Name: "hub", Description: "d", Routes: []string{"a", "b"}}))
	require.NoError(t, r.Add(&agent.Definition{Name: "a", Description: "d"}))

	table := r.RoutingTable()
	assert.Equal(t, []string{"a", "b"}, table["hub"])
	assert.Empty(t, table["a"])
}
