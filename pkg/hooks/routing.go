package hooks

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/claude-collective/collective/pkg/agent"
)

// transcriptTailBytes bounds how much of the transcript the routing handler
// scans. Directives are emitted at the end of an agent turn, so the tail is
// enough.
const transcriptTailBytes = 64 * 1024

// RoutingHandler enforces the handoff convention: a finishing agent hands
// control onward by emitting "ROUTE TO: @agent". The handler validates the
// target against the installed registry and surfaces the directive to the
// host as a system message.
type RoutingHandler struct {
	Registry *agent.Registry
}

// NewRoutingHandler creates a routing handler over the given registry.
func NewRoutingHandler(registry *agent.Registry) *RoutingHandler {
	return &RoutingHandler{Registry: registry}
}

func (h *RoutingHandler) Name() string { return "routing" }

func (h *RoutingHandler) Events() []Event {
	return []Event{EventSubagentStop, EventStop}
}

func (h *RoutingHandler) Handle(ctx context.Context, in *Input) (Output, error) {
	text := in.ResponseText()
	if text == "" {
		text = readTranscriptTail(in.TranscriptPath)
	}

	routes := agent.ExtractRoutes(text)
	if len(routes) == 0 {
		return Allow(), nil
	}

	// The last directive in the turn is the operative one.
	target := routes[len(routes)-1]

	if h.Registry != nil && !h.Registry.Has(target) {
		known := strings.Join(h.Registry.Names(), ", ")
		return Block(fmt.Sprintf("routing directive targets unknown agent @%s (installed agents: %s)", target, known)), nil
	}

	out := Allow()
	out.SystemMessage = fmt.Sprintf("handoff: @%s", target)
	return out, nil
}

// Target extracts the operative routing target from text, if any.
func (h *RoutingHandler) Target(text string) (string, bool) {
	routes := agent.ExtractRoutes(text)
	if len(routes) == 0 {
		return "", false
	}
	return routes[len(routes)-1], true
}

// readTranscriptTail returns the last chunk of the transcript file, or ""
// if it cannot be read. Transcript access is best-effort only.
func readTranscriptTail(path string) string {
	if path == "" {
		return ""
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ""
	}

	offset := int64(0)
	if info.Size() > transcriptTailBytes {
		offset = info.Size() - transcriptTailBytes
	}

	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return ""
	}

	return string(buf)
}
