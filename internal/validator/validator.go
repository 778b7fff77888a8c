// Package validator checks an installed collective for consistency: agent
// definitions parse, the routing graph is reachable from the hub, hook
// wiring points at real scripts, and the configuration validates.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude-collective/collective/api"
	"github.com/claude-collective/collective/internal/config"
	"github.com/claude-collective/collective/pkg/agent"
)

// Problem is one validation finding.
type Problem struct {
	Check   string `json:"check"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Subject != "" {
		return fmt.Sprintf("[%s] %s: %s", p.Check, p.Subject, p.Message)
	}
	return fmt.Sprintf("[%s] %s", p.Check, p.Message)
}

// Options configures Validate.
type Options struct {
	// CheckAPI additionally loads and validates the embedded OpenAPI
	// document.
	CheckAPI bool
}

// Validate runs every check against the installation in dir and returns all
// findings. It never fails fast: the caller gets the full list.
func Validate(ctx context.Context, dir string, opts Options) []Problem {
	var problems []Problem

	cfg, cfgProblems := checkConfig(dir)
	problems = append(problems, cfgProblems...)

	registry, agentProblems := checkAgents(dir)
	problems = append(problems, agentProblems...)

	if registry != nil && registry.Len() > 0 {
		problems = append(problems, checkRouting(registry, cfg.Routing.Hub)...)
	}

	problems = append(problems, checkSettings(dir)...)

	if opts.CheckAPI {
		if _, err := api.Load(ctx); err != nil {
			problems = append(problems, Problem{Check: "api", Message: err.Error()})
		}
	}

	return problems
}

func checkConfig(dir string) (*config.Config, []Problem) {
	cfg, err := config.Load(filepath.Join(dir, ".claude-collective"))
	if err != nil {
		return config.Default(), []Problem{{Check: "config", Message: err.Error()}}
	}
	return cfg, nil
}

// checkAgents parses every installed agent definition. Files that fail to
// parse are reported individually; the rest still form a registry for the
// routing check.
func checkAgents(dir string) (*agent.Registry, []Problem) {
	agentsDir := filepath.Join(dir, ".claude", "agents")
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []Problem{{Check: "agents", Message: "no agents installed (run `collective install`)"}}
		}
		return nil, []Problem{{Check: "agents", Message: err.Error()}}
	}

	var problems []Problem
	registry := agent.NewRegistry()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".md" || name == "README.md" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(agentsDir, name))
		if err != nil {
			problems = append(problems, Problem{Check: "agents", Subject: name, Message: err.Error()})
			continue
		}

		def, err := agent.Parse(data)
		if err != nil {
			problems = append(problems, Problem{Check: "agents", Subject: name, Message: err.Error()})
			continue
		}
		def.FilePath = filepath.Join(agentsDir, name)

		if err := registry.Add(def); err != nil {
			problems = append(problems, Problem{Check: "agents", Subject: name, Message: err.Error()})
		}
	}

	return registry, problems
}

// checkRouting walks the routing graph from the hub and reports unknown
// targets and unreachable agents.
func checkRouting(registry *agent.Registry, hub string) []Problem {
	var problems []Problem

	if !registry.Has(hub) {
		problems = append(problems, Problem{
			Check:   "routing",
			Subject: hub,
			Message: "configured hub agent is not installed",
		})
		return problems
	}

	table := registry.RoutingTable()

	// Every declared target must exist.
	for source, targets := range table {
		for _, target := range targets {
			if !registry.Has(target) {
				problems = append(problems, Problem{
					Check:   "routing",
					Subject: source,
					Message: fmt.Sprintf("routes to unknown agent %q", target),
				})
			}
		}
	}

	// BFS from the hub: every installed agent should be reachable.
	reached := map[string]bool{hub: true}
	frontier := []string{hub}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, target := range table[current] {
			if registry.Has(target) && !reached[target] {
				reached[target] = true
				frontier = append(frontier, target)
			}
		}
	}

	for _, name := range registry.Names() {
		if !reached[name] {
			problems = append(problems, Problem{
				Check:   "routing",
				Subject: name,
				Message: "unreachable from the hub (no routing path)",
			})
		}
	}

	return problems
}

// checkSettings verifies every hook command wired in settings.json points at
// an existing file.
func checkSettings(dir string) []Problem {
	path := filepath.Join(dir, ".claude", "settings.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Problem{{Check: "settings", Message: "settings.json missing"}}
		}
		return []Problem{{Check: "settings", Message: err.Error()}}
	}

	var settings struct {
		Hooks map[string][]struct {
			Hooks []struct {
				Command string `json:"command"`
			} `json:"hooks"`
		} `json:"hooks"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return []Problem{{Check: "settings", Message: fmt.Sprintf("settings.json is not valid JSON: %v", err)}}
	}

	var problems []Problem
	for event, groups := range settings.Hooks {
		for _, group := range groups {
			for _, h := range group.Hooks {
				cmd := h.Command
				if cmd == "" {
					continue
				}
				// Only path-shaped commands are checked; bare binaries
				// resolve via PATH at run time.
				if !strings.Contains(cmd, "/") {
					continue
				}
				target := cmd
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, cmd)
				}
				if _, err := os.Stat(target); err != nil {
					problems = append(problems, Problem{
						Check:   "settings",
						Subject: event,
						Message: fmt.Sprintf("hook command %q does not exist", cmd),
					})
				}
			}
		}
	}

	return problems
}
