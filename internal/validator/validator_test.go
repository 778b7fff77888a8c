package validator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-collective/collective/internal/installer"
)

func checks(problems []Problem) map[string]int {
	out := map[string]int{}
	for _, p := range problems {
		out[p.Check]++
	}
	return out
}

func TestValidate_FreshInstallIsClean(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	problems := Validate(context.Background(), dir, Options{CheckAPI: true})
	assert.Empty(t, problems)
}

func TestValidate_EmptyDir(t *testing.T) {
	problems := Validate(context.Background(), t.TempDir(), Options{})

	byCheck := checks(problems)
	assert.NotZero(t, byCheck["agents"])
	assert.NotZero(t, byCheck["settings"])
}

func TestValidate_BrokenAgentReported(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	broken := filepath.Join(dir, ".claude", "agents", "broken-agent.md")
	require.NoError(t, os.WriteFile(broken, []byte("---\ndescription: no name\n---\nbody"), 0o644))

	problems := Validate(context.Background(), dir, Options{})
	require.NotEmpty(t, problems)

	found := false
	for _, p := range problems {
		if p.Check == "agents" && p.Subject == "broken-agent.md" {
			found = true
		}
	}
	assert.True(t, found, "parse failure must name the file: %v", problems)
}

func TestValidate_UnknownRouteTarget(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	rogue := `---
name: rogue-agent
description: routes into the void
---
Done. ROUTE TO: @nonexistent-agent
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".claude", "agents", "rogue-agent.md"), []byte(rogue), 0o644))

	problems := Validate(context.Background(), dir, Options{})

	found := false
	for _, p := range problems {
		if p.Check == "routing" && p.Subject == "rogue-agent" {
			found = true
			assert.Contains(t, p.Message, "nonexistent-agent")
		}
	}
	assert.True(t, found, "unknown route target must be flagged: %v", problems)
}

func TestValidate_UnreachableAgent(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	// An island: nothing routes to it and it routes nowhere.
	island := `---
name: island-agent
description: isolated
---
I work alone.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".claude", "agents", "island-agent.md"), []byte(island), 0o644))

	problems := Validate(context.Background(), dir, Options{})

	found := false
	for _, p := range problems {
		if p.Check == "routing" && p.Subject == "island-agent" {
			found = true
			assert.Contains(t, p.Message, "unreachable")
		}
	}
	assert.True(t, found, "island agent must be flagged: %v", problems)
}

func TestValidate_MissingHookScript(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, ".claude-collective", "hooks", "guard.sh")))

	problems := Validate(context.Background(), dir, Options{})

	found := false
	for _, p := range problems {
		if p.Check == "settings" {
			found = true
			assert.Contains(t, p.Message, "guard.sh")
		}
	}
	assert.True(t, found, "dangling hook command must be flagged: %v", problems)
}

func TestValidate_BadConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	bad := filepath.Join(dir, ".claude-collective", "config.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[log]\nlevel = \"shouting\"\n"), 0o644))

	problems := Validate(context.Background(), dir, Options{})
	assert.NotZero(t, checks(problems)["config"])
}
