package agent_test

import (
	"testing"

	"github.com/claude-collective/collective/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routingAgentMD = `---
name: routing-agent
description: Hub agent that delegates every request to a specialist.
tools: Read, Grep
model: sonnet
color: blue
routes:
  - implementation-agent
---
# Routing Agent

You never implement directly. Decide the specialist and emit a directive:

ROUTE TO: @implementation-agent
ROUTE TO: @testing-agent
`

func TestParse_Frontmatter(t *testing.T) {
	def, err := agent.Parse([]byte(routingAgentMD))
	require.NoError(t, err)

	assert.Equal(t, "routing-agent", def.Name)
	assert.Equal(t, "sonnet", def.Model)
	assert.Equal(t, "blue", def.Color)
	assert.Equal(t, agent.StringList{"Read", "Grep"}, def.Tools)
	assert.Contains(t, def.Body, "# Routing Agent")
	assert.NotContains(t, def.Body, "description:", "frontmatter must not leak into body")
}

func TestParse_MergesBodyRoutes(t *testing.T) {
	def, err := agent.Parse([]byte(routingAgentMD))
	require.NoError(t, err)

	// Declared route first, body mentions after, no duplicates.
	assert.Equal(t, []string{"implementation-agent", "testing-agent"}, def.Routes)
}

func TestParse_ToolsAsList(t *testing.T) {
	md := "---\nname: a\ndescription: d\ntools:\n  - Read\n  - Write\n---\nbody\n"
	def, err := agent.Parse([]byte(md))
	require.NoError(t, err)
	assert.Equal(t, agent.StringList{"Read", "Write"}, def.Tools)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"no frontmatter", "# Just markdown\n"},
		{"unterminated frontmatter", "---\nname: a\ndescription: d\n"},
		{"missing name", "---\ndescription: d\n---\nbody\n"},
		{"missing description", "---\nname: a\n---\nbody\n"},
		{"invalid yaml", "---\nname: [unclosed\n---\nbody\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agent.Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestExtractRoutes(t *testing.T) {
	text := "First ROUTE TO: @a then ROUTE TO: @b and again ROUTE TO: @a"
	assert.Equal(t, []string{"a", "b"}, agent.ExtractRoutes(text))

	assert.Nil(t, agent.ExtractRoutes("no directives here"))
}
