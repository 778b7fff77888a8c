package installer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(actions []Action) map[string]string {
	out := make(map[string]string, len(actions))
	for _, a := range actions {
		out[a.Path] = a.Result
	}
	return out
}

func TestInstall_Full(t *testing.T) {
	dir := t.TempDir()

	actions, err := Install(dir, Options{Mode: ModeFull})
	require.NoError(t, err)

	for _, a := range actions {
		assert.Equal(t, "created", a.Result, a.Path)
	}

	assert.FileExists(t, filepath.Join(dir, ".claude", "agents", "routing-agent.md"))
	assert.FileExists(t, filepath.Join(dir, ".claude", "agents", "implementation-agent.md"))
	assert.FileExists(t, filepath.Join(dir, ".claude", "settings.json"))
	assert.FileExists(t, filepath.Join(dir, ".claude-collective", "hooks", "guard.sh"))
	assert.FileExists(t, filepath.Join(dir, ".claude-collective", "CONTRACT.md"))
	assert.FileExists(t, filepath.Join(dir, ".claude-collective", "config.toml"))

	info, err := os.Stat(filepath.Join(dir, ".claude-collective", "hooks", "guard.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm(), "hook scripts must be executable")
}

func TestInstall_Minimal(t *testing.T) {
	dir := t.TempDir()

	_, err := Install(dir, Options{Mode: ModeMinimal})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, ".claude", "agents", "routing-agent.md"))
	assert.NoFileExists(t, filepath.Join(dir, ".claude", "agents", "implementation-agent.md"))
	assert.NoFileExists(t, filepath.Join(dir, ".claude-collective", "CONTRACT.md"))
	assert.FileExists(t, filepath.Join(dir, ".claude-collective", "config.toml"))
}

func TestInstall_HooksOnly(t *testing.T) {
	dir := t.TempDir()

	_, err := Install(dir, Options{Mode: ModeHooksOnly})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, ".claude", "agents", "routing-agent.md"))
	assert.FileExists(t, filepath.Join(dir, ".claude", "settings.json"))
	assert.FileExists(t, filepath.Join(dir, ".claude-collective", "hooks", "routing.sh"))
	assert.NoFileExists(t, filepath.Join(dir, ".claude-collective", "config.toml"))
}

func TestInstall_RepeatSkips(t *testing.T) {
	dir := t.TempDir()

	_, err := Install(dir, Options{Mode: ModeFull})
	require.NoError(t, err)

	actions, err := Install(dir, Options{Mode: ModeFull})
	require.NoError(t, err)

	for _, a := range actions {
		assert.Equal(t, "skipped", a.Result, a.Path)
	}
}

func TestInstall_ForceOverwritesAndBacksUp(t *testing.T) {
	dir := t.TempDir()

	_, err := Install(dir, Options{Mode: ModeFull})
	require.NoError(t, err)

	hubPath := filepath.Join(dir, ".claude", "agents", "routing-agent.md")
	require.NoError(t, os.WriteFile(hubPath, []byte("locally edited"), 0o644))

	actions, err := Install(dir, Options{Mode: ModeFull, Force: true, Backup: true})
	require.NoError(t, err)
	assert.Equal(t, "overwritten", results(actions)[filepath.Join(".claude", "agents", "routing-agent.md")])

	restored, err := os.ReadFile(hubPath)
	require.NoError(t, err)
	assert.Contains(t, string(restored), "routing-agent")

	bak, err := os.ReadFile(hubPath + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "locally edited", string(bak))
}

func TestInstall_MergesSettings(t *testing.T) {
	dir := t.TempDir()

	// A project with its own settings and one hook already wired.
	existing := map[string]any{
		"model": "opus",
		"hooks": map[string]any{
			"PreToolUse": []any{
				map[string]any{
					"matcher": "Bash",
					"hooks": []any{
						map[string]any{"type": "command", "command": "scripts/lint.sh"},
					},
				},
			},
		},
	}
	data, err := json.Marshal(existing)
	require.NoError(t, err)
	settingsPath := filepath.Join(dir, ".claude", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(settingsPath), 0o755))
	require.NoError(t, os.WriteFile(settingsPath, data, 0o644))

	actions, err := Install(dir, Options{Mode: ModeHooksOnly})
	require.NoError(t, err)
	assert.Equal(t, "merged", results(actions)[filepath.Join(".claude", "settings.json")])

	merged, err := os.ReadFile(settingsPath)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(merged, &got))

	assert.Equal(t, "opus", got["model"], "unrelated settings keys survive the merge")

	hooks := got["hooks"].(map[string]any)
	pre := hooks["PreToolUse"].([]any)
	assert.Len(t, pre, 2, "existing matcher group kept, pack group appended")
	assert.Contains(t, string(merged), "scripts/lint.sh")
	assert.Contains(t, string(merged), "guard.sh")
	assert.Contains(t, string(merged), "routing.sh")

	// Merging again changes nothing.
	actions, err = Install(dir, Options{Mode: ModeHooksOnly})
	require.NoError(t, err)
	assert.Equal(t, "skipped", results(actions)[filepath.Join(".claude", "settings.json")])
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()

	status, err := Status(dir)
	require.NoError(t, err)
	assert.False(t, status.Complete())

	_, err = Install(dir, Options{Mode: ModeFull})
	require.NoError(t, err)

	status, err = Status(dir)
	require.NoError(t, err)
	assert.True(t, status.Complete())

	byName := map[string]Component{}
	for _, c := range status.Components {
		byName[c.Name] = c
	}
	assert.Equal(t, byName["agents"].Expected, byName["agents"].Installed)
	assert.True(t, byName["settings"].Present)
	assert.True(t, byName["hooks"].Present)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"full", "minimal", "hooks-only"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}

	_, err := ParseMode("partial")
	require.Error(t, err)
}

func TestTemplateAgentNames(t *testing.T) {
	names, err := TemplateAgentNames()
	require.NoError(t, err)
	assert.Contains(t, names, "routing-agent")
	assert.Contains(t, names, "implementation-agent")
}
