package installer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Component is one checkable piece of an installation.
type Component struct {
	Name      string `json:"name"`
	Present   bool   `json:"present"`
	Installed int    `json:"installed"`
	Expected  int    `json:"expected"`
	Detail    string `json:"detail,omitempty"`
}

// InstallStatus summarizes what is installed in a target directory.
type InstallStatus struct {
	Dir        string      `json:"dir"`
	Components []Component `json:"components"`
}

// Complete reports whether every component is fully present.
func (s *InstallStatus) Complete() bool {
	for _, c := range s.Components {
		if !c.Present {
			return false
		}
	}
	return true
}

// Status inspects dir and reports per-component presence against the full
// template pack.
func Status(dir string) (*InstallStatus, error) {
	status := &InstallStatus{Dir: dir}

	agentNames, err := TemplateAgentNames()
	if err != nil {
		return nil, err
	}
	installed := countFiles(filepath.Join(dir, ".claude", "agents"), ".md")
	status.Components = append(status.Components, Component{
		Name:      "agents",
		Present:   installed >= len(agentNames),
		Installed: installed,
		Expected:  len(agentNames),
	})

	hookEntries, err := fs.ReadDir(templates, "templates/hooks")
	if err != nil {
		return nil, err
	}
	installedHooks := countFiles(filepath.Join(dir, ".claude-collective", "hooks"), ".sh")
	status.Components = append(status.Components, Component{
		Name:      "hooks",
		Present:   installedHooks >= len(hookEntries),
		Installed: installedHooks,
		Expected:  len(hookEntries),
	})

	for _, check := range []struct {
		name string
		path string
	}{
		{"settings", filepath.Join(".claude", "settings.json")},
		{"contract", filepath.Join(".claude-collective", "CONTRACT.md")},
		{"config", filepath.Join(".claude-collective", "config.toml")},
	} {
		c := Component{Name: check.name, Detail: check.path, Expected: 1}
		if _, err := os.Stat(filepath.Join(dir, check.path)); err == nil {
			c.Present = true
			c.Installed = 1
		}
		status.Components = append(status.Components, c)
	}

	return status, nil
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ext) {
			n++
		}
	}
	return n
}
