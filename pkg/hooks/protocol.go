// Package hooks implements the Claude Code hook protocol: the host invokes
// the binary at tool-use boundaries with a JSON payload on stdin, and reads
// a decision JSON from stdout. Exit code 2 blocks the tool call.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
)

// Event identifies the lifecycle point a hook fires at.
// The names are imposed by the host.
type Event string

const (
	EventPreToolUse       Event = "PreToolUse"
	EventPostToolUse      Event = "PostToolUse"
	EventSubagentStop     Event = "SubagentStop"
	EventStop             Event = "Stop"
	EventSessionStart     Event = "SessionStart"
	EventUserPromptSubmit Event = "UserPromptSubmit"
)

// Input is the payload the host writes to stdin.
type Input struct {
	SessionID      string          `json:"session_id,omitempty"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	CWD            string          `json:"cwd,omitempty"`
	HookEventName  Event           `json:"hook_event_name"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolInput      map[string]any  `json:"tool_input,omitempty"`
	ToolResponse   json.RawMessage `json:"tool_response,omitempty"`
	SubagentName   string          `json:"subagent_name,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
}

// DecodeToolInput decodes the loosely-typed tool_input map into a typed
// struct using mapstructure tags.
func (in *Input) DecodeToolInput(v any) error {
	if err := mapstructure.Decode(in.ToolInput, v); err != nil {
		return fmt.Errorf("failed to decode tool input: %w", err)
	}
	return nil
}

// ResponseText returns the tool_response as plain text. The host sends it
// either as a JSON string or as a structured object; both are flattened so
// handlers can pattern-match on it.
func (in *Input) ResponseText() string {
	if len(in.ToolResponse) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(in.ToolResponse, &s); err == nil {
		return s
	}

	return string(in.ToolResponse)
}

// FileToolInput covers the write-path tools (Write, Edit, MultiEdit).
type FileToolInput struct {
	FilePath string `mapstructure:"file_path"`
	Content  string `mapstructure:"content"`
}

// Output is the decision JSON written to stdout.
type Output struct {
	Continue       *bool  `json:"continue,omitempty"`
	Decision       string `json:"decision,omitempty"` // "block" or empty
	Reason         string `json:"reason,omitempty"`
	SystemMessage  string `json:"systemMessage,omitempty"`
	SuppressOutput bool   `json:"suppressOutput,omitempty"`
}

// Allow returns a pass-through decision.
func Allow() Output {
	yes := true
	return Output{Continue: &yes}
}

// Block returns a blocking decision with the given reason.
func Block(reason string) Output {
	return Output{Decision: "block", Reason: reason}
}

// Blocked reports whether the output blocks the host action.
func (o Output) Blocked() bool {
	return o.Decision == "block"
}

// ExitCode maps the decision to the host's exit code convention:
// 2 blocks the tool call, 0 allows it.
func (o Output) ExitCode() int {
	if o.Blocked() {
		return 2
	}
	return 0
}

// ReadInput decodes a hook payload from r.
// An empty stream yields (nil, io.EOF): the caller treats it as a no-op,
// because some host versions fire hooks with no payload.
func ReadInput(r io.Reader) (*Input, error) {
	var in Input
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode hook input: %w", err)
	}
	return &in, nil
}

// WriteOutput encodes the decision to w as a single JSON line.
func WriteOutput(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}
