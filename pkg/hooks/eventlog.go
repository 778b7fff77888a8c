package hooks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude-collective/collective/pkg/agent"
)

// EventRecord is one row of the NDJSON hook event log kept under
// .claude-collective/metrics/.
type EventRecord struct {
	At           time.Time `json:"at"`
	Event        Event     `json:"event"`
	SessionID    string    `json:"session_id,omitempty"`
	ToolName     string    `json:"tool_name,omitempty"`
	SubagentName string    `json:"subagent_name,omitempty"`
	Target       string    `json:"target,omitempty"`  // routing target, if any
	Outcome      string    `json:"outcome,omitempty"` // task completion signal, see OutcomeTestsPassed
	Handler      string    `json:"handler,omitempty"` // handler that blocked, when Blocked
	Blocked      bool      `json:"blocked,omitempty"`
}

// Completion signals recorded in EventRecord.Outcome. A subagent's task is
// done when its turn carries passing test output, so the test-runner verdict
// is the queue's completion signal.
const (
	OutcomeTestsPassed = "tests_passed"
	OutcomeTestsFailed = "tests_failed"
)

// EventLog appends hook events to an NDJSON file.
type EventLog struct {
	Path string
}

// NewEventLog creates an event log at path. If path is empty, it defaults
// to .claude-collective/metrics/events.ndjson.
func NewEventLog(path string) *EventLog {
	if path == "" {
		path = filepath.Join(".claude-collective", "metrics", "events.ndjson")
	}
	return &EventLog{Path: path}
}

// Append writes one record. The log is append-only; rotation is left to the
// operator.
func (l *EventLog) Append(rec EventRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("failed to ensure metrics directory: %w", err)
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}
	data = append(data, '\n')

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append event record: %w", err)
	}

	return nil
}

// Read returns all records in the log, oldest first.
// Corrupt lines are skipped: a partial write from a killed hook process must
// not make the whole log unreadable.
func (l *EventLog) Read() ([]EventRecord, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []EventRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var records []EventRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan event log: %w", err)
	}

	if records == nil {
		records = []EventRecord{}
	}

	return records, nil
}

// RecordHookEvent implements Recorder by persisting blocking decisions.
// Allowed events already get a row from LogHandler, but a block short-circuits
// the dispatch before LogHandler runs, so the dispatcher reports it here.
func (l *EventLog) RecordHookEvent(event Event, handler string, blocked bool) {
	if !blocked {
		return
	}
	_ = l.Append(EventRecord{
		At:      time.Now().UTC(),
		Event:   event,
		Handler: handler,
		Blocked: true,
	})
}

// LogHandler records every hook event to the event log. It never blocks.
type LogHandler struct {
	Log *EventLog
}

func (h *LogHandler) Name() string { return "log" }

func (h *LogHandler) Events() []Event {
	return []Event{
		EventPreToolUse, EventPostToolUse,
		EventSubagentStop, EventStop,
		EventSessionStart, EventUserPromptSubmit,
	}
}

func (h *LogHandler) Handle(ctx context.Context, in *Input) (Output, error) {
	rec := EventRecord{
		At:           time.Now().UTC(),
		Event:        in.HookEventName,
		SessionID:    in.SessionID,
		ToolName:     in.ToolName,
		SubagentName: in.SubagentName,
	}

	if text := in.ResponseText(); text != "" {
		if target := extractLastRoute(text); target != "" {
			rec.Target = target
		}
		switch {
		case testsFailed(text):
			rec.Outcome = OutcomeTestsFailed
		case TestsPassed(text):
			rec.Outcome = OutcomeTestsPassed
		}
	}

	if err := h.Log.Append(rec); err != nil {
		return Allow(), err
	}
	return Allow(), nil
}

func extractLastRoute(text string) string {
	routes := agent.ExtractRoutes(text)
	if len(routes) == 0 {
		return ""
	}
	return routes[len(routes)-1]
}
