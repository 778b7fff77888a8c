package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry holds the loaded agent definitions for a project.
type Registry struct {
	agents map[string]*Definition
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Definition)}
}

// LoadDir reads every .md file in dir into a registry.
// Files that are not agent definitions (no frontmatter) are reported as
// errors; a missing directory yields an empty registry, since "no agents
// installed yet" is a normal state for status/validate.
func LoadDir(dir string) (*Registry, error) {
	r := NewRegistry()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read agents directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if strings.EqualFold(name, "README.md") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		def.FilePath = path

		if err := r.Add(def); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return r, nil
}

// Add registers a definition, rejecting duplicate names.
func (r *Registry) Add(def *Definition) error {
	if _, exists := r.agents[def.Name]; exists {
		return fmt.Errorf("duplicate agent name %q", def.Name)
	}
	r.agents[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Get returns a definition by name.
func (r *Registry) Get(name string) (*Definition, error) {
	def, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}
	return def, nil
}

// Has reports whether the registry contains name.
func (r *Registry) Has(name string) bool {
	_, ok := r.agents[name]
	return ok
}

// List returns all definitions in load order.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Names returns all agent names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// RoutingTable returns the handoff edges of the registry: for each agent,
// the list of agents it may route to.
func (r *Registry) RoutingTable() map[string][]string {
	table := make(map[string][]string, len(r.agents))
	for name, def := range r.agents {
		table[name] = append([]string(nil), def.Routes...)
	}
	return table
}
