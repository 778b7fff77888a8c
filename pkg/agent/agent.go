// Package agent loads and models agent persona definitions: markdown files
// with YAML frontmatter installed under .claude/agents/.
package agent

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrAgentNotFound is returned when an agent name cannot be resolved.
var ErrAgentNotFound = errors.New("agent not found")

// Definition represents a parsed agent persona file.
type Definition struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Tools       StringList `json:"tools,omitempty" yaml:"tools,omitempty"`
	Model       string     `json:"model,omitempty" yaml:"model,omitempty"`
	Color       string     `json:"color,omitempty" yaml:"color,omitempty"`

	// Routes lists agents this persona may hand off to. The body's
	// "ROUTE TO: @x" mentions are merged in during parsing.
	Routes []string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Body holds the markdown prompt content below the frontmatter, verbatim.
	Body string `json:"-" yaml:"-"`

	// FilePath is the source file, kept for diagnostics.
	FilePath string `json:"file_path,omitempty" yaml:"-"`
}

// StringList accepts both YAML forms the host tolerates:
// a sequence ("tools: [Read, Grep]") and a comma-separated scalar
// ("tools: Read, Grep").
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*l = splitCommaList(raw)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("tools must be a string or a list, got yaml kind %d", value.Kind)
	}
}

func splitCommaList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
