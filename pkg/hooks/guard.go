package hooks

import (
	"context"
	"fmt"
)

// writeTools are the host tools that mutate the workspace.
var writeTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// GuardHandler enforces hub-and-spoke delegation: when the collective runs
// in hub mode, the top-level agent must route work to specialists instead of
// editing files itself. Write-path tool calls issued outside a subagent are
// blocked; reads always pass.
type GuardHandler struct {
	// HubMode enables enforcement. In minimal installs the guard is a no-op.
	HubMode bool
}

func (h *GuardHandler) Name() string { return "guard" }

func (h *GuardHandler) Events() []Event {
	return []Event{EventPreToolUse}
}

func (h *GuardHandler) Handle(ctx context.Context, in *Input) (Output, error) {
	if !h.HubMode || !writeTools[in.ToolName] {
		return Allow(), nil
	}

	// Subagents are allowed to write; only the hub itself is gated.
	if in.SubagentName != "" {
		return Allow(), nil
	}

	var fi FileToolInput
	if err := in.DecodeToolInput(&fi); err != nil {
		// Unknown payload shape. Still enforce: the tool name is what counts.
		fi.FilePath = "(unknown)"
	}

	return Block(fmt.Sprintf(
		"direct %s of %s violates the delegation contract: the hub never implements. Emit 'ROUTE TO: @<agent>' instead.",
		in.ToolName, fi.FilePath,
	)), nil
}
