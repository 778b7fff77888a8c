package hooks

import (
	"context"
	"fmt"
	"regexp"
)

// failureMarkers match test-runner output across the toolchains the
// installed agents use (go test, jest, pytest).
var failureMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^--- FAIL`),
	regexp.MustCompile(`(?m)^FAIL\b`),
	regexp.MustCompile(`\b\d+\s+(failing|failed)\b`),
	regexp.MustCompile(`(?m)^Tests:.*\bfailed\b`),
	regexp.MustCompile(`\bAssertionError\b`),
}

// passMarker recognizes an explicitly passing run, used to distinguish
// "tests ran and passed" from "no test output at all".
var passMarker = regexp.MustCompile(`(?m)^(ok\b|PASS\b|Tests:.*\bpassed\b)`)

// HandoffHandler implements the test-driven handoff gate: a subagent may
// only conclude its turn with green tests. When the tool response carries
// test output with failures, the stop is blocked and the contract text is
// returned so the agent keeps working.
type HandoffHandler struct{}

func (h *HandoffHandler) Name() string { return "handoff" }

func (h *HandoffHandler) Events() []Event {
	return []Event{EventPostToolUse, EventSubagentStop}
}

func (h *HandoffHandler) Handle(ctx context.Context, in *Input) (Output, error) {
	text := in.ResponseText()
	if text == "" {
		return Allow(), nil
	}

	for _, marker := range failureMarkers {
		if loc := marker.FindString(text); loc != "" {
			return Block(fmt.Sprintf(
				"test-driven handoff gate: failing tests detected (%q). Fix the failures before handing off.",
				loc,
			)), nil
		}
	}

	return Allow(), nil
}

// TestsPassed reports whether text contains explicit passing test output.
func TestsPassed(text string) bool {
	if text == "" {
		return false
	}
	return !testsFailed(text) && passMarker.MatchString(text)
}

// testsFailed reports whether text carries failing test-runner output.
func testsFailed(text string) bool {
	for _, marker := range failureMarkers {
		if marker.MatchString(text) {
			return true
		}
	}
	return false
}
