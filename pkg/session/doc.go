// Package session serializes concurrent access to shared JSON state.
//
// Claude Code can fire several hooks for the same session in quick
// succession (PostToolUse while a SubagentStop is still flushing metrics).
// The Manager hands out one mutex per document key, reference-counted so
// idle locks are garbage collected, with an optional distributed locker
// for multi-process setups.
package session
