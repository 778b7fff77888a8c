package hooks_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/claude-collective/collective/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	name   string
	events []hooks.Event
	out    hooks.Output
	err    error
	calls  int
}

func (s *stubHandler) Name() string          { return s.name }
func (s *stubHandler) Events() []hooks.Event { return s.events }
func (s *stubHandler) Handle(ctx context.Context, in *hooks.Input) (hooks.Output, error) {
	s.calls++
	return s.out, s.err
}

func TestDispatcher_FirstBlockWins(t *testing.T) {
	blocker := &stubHandler{name: "b", events: []hooks.Event{hooks.EventPreToolUse}, out: hooks.Block("nope")}
	after := &stubHandler{name: "a", events: []hooks.Event{hooks.EventPreToolUse}, out: hooks.Allow()}

	d := hooks.NewDispatcher([]hooks.Handler{blocker, after})
	out := d.Dispatch(context.Background(), &hooks.Input{HookEventName: hooks.EventPreToolUse})

	assert.True(t, out.Blocked())
	assert.Equal(t, "nope", out.Reason)
	assert.Equal(t, 1, blocker.calls)
	assert.Equal(t, 0, after.calls, "handlers after a block must not run")
}

func TestDispatcher_SkipsUnsubscribed(t *testing.T) {
	h := &stubHandler{name: "h", events: []hooks.Event{hooks.EventStop}, out: hooks.Allow()}

	d := hooks.NewDispatcher([]hooks.Handler{h})
	out := d.Dispatch(context.Background(), &hooks.Input{HookEventName: hooks.EventPreToolUse})

	assert.False(t, out.Blocked())
	assert.Equal(t, 0, h.calls)
}

func TestDispatcher_HandlerErrorAllows(t *testing.T) {
	failing := &stubHandler{name: "f", events: []hooks.Event{hooks.EventPreToolUse}, err: assert.AnError}

	d := hooks.NewDispatcher([]hooks.Handler{failing})
	out := d.Dispatch(context.Background(), &hooks.Input{HookEventName: hooks.EventPreToolUse})

	assert.False(t, out.Blocked(), "a handler bug must never block the host")
}

func TestDispatcher_Run(t *testing.T) {
	t.Run("block exits 2", func(t *testing.T) {
		blocker := &stubHandler{name: "b", events: []hooks.Event{hooks.EventPreToolUse}, out: hooks.Block("contract")}
		d := hooks.NewDispatcher([]hooks.Handler{blocker})

		in := strings.NewReader(`{"hook_event_name":"PreToolUse","tool_name":"Write"}`)
		var out bytes.Buffer
		code := d.Run(context.Background(), in, &out)

		assert.Equal(t, 2, code)
		assert.Contains(t, out.String(), `"decision":"block"`)
		assert.Contains(t, out.String(), "contract")
	})

	t.Run("empty stdin is a no-op", func(t *testing.T) {
		d := hooks.NewDispatcher(nil)
		var out bytes.Buffer
		code := d.Run(context.Background(), strings.NewReader(""), &out)

		assert.Equal(t, 0, code)
		assert.Empty(t, out.String())
	})

	t.Run("malformed input allows", func(t *testing.T) {
		d := hooks.NewDispatcher(nil)
		var out bytes.Buffer
		code := d.Run(context.Background(), strings.NewReader("{not json"), &out)

		assert.Equal(t, 0, code)
		assert.Contains(t, out.String(), `"continue":true`)
	})
}

func TestOutput_ExitCode(t *testing.T) {
	assert.Equal(t, 0, hooks.Allow().ExitCode())
	assert.Equal(t, 2, hooks.Block("r").ExitCode())
}

func TestReadInput_DecodesToolInput(t *testing.T) {
	in, err := hooks.ReadInput(strings.NewReader(`{
		"hook_event_name": "PreToolUse",
		"tool_name": "Write",
		"tool_input": {"file_path": "main.go", "content": "package main"}
	}`))
	require.NoError(t, err)

	var fi hooks.FileToolInput
	require.NoError(t, in.DecodeToolInput(&fi))
	assert.Equal(t, "main.go", fi.FilePath)
	assert.Equal(t, "package main", fi.Content)
}
