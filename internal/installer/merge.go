package installer

import (
	"encoding/json"
	"fmt"
	"os"
)

// mergeSettings folds the pack's hook wiring into an existing settings.json.
// Top-level keys other than "hooks" are left untouched; within "hooks", each
// event's matcher groups are appended unless an identical command is already
// wired for that event. Returns the merged document and whether it differs
// from what is on disk.
func mergeSettings(destPath string, packed []byte) ([]byte, bool, error) {
	existingRaw, err := os.ReadFile(destPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing settings: %w", err)
	}

	var existing map[string]any
	if err := json.Unmarshal(existingRaw, &existing); err != nil {
		return nil, false, fmt.Errorf("existing settings.json is not valid JSON: %w", err)
	}

	var pack map[string]any
	if err := json.Unmarshal(packed, &pack); err != nil {
		return nil, false, fmt.Errorf("embedded settings.json is not valid JSON: %w", err)
	}

	changed := false

	existingHooks, _ := existing["hooks"].(map[string]any)
	if existingHooks == nil {
		existingHooks = map[string]any{}
	}
	packHooks, _ := pack["hooks"].(map[string]any)

	for event, packGroups := range packHooks {
		packList, _ := packGroups.([]any)
		current, _ := existingHooks[event].([]any)

		wired := commandSet(current)
		for _, group := range packList {
			if hasNewCommand(group, wired) {
				current = append(current, group)
				changed = true
			}
		}
		existingHooks[event] = current
	}
	existing["hooks"] = existingHooks

	if !changed {
		return existingRaw, false, nil
	}

	merged, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal merged settings: %w", err)
	}
	merged = append(merged, '\n')
	return merged, true, nil
}

// commandSet collects every hook command already wired in the matcher groups.
func commandSet(groups []any) map[string]bool {
	set := map[string]bool{}
	for _, group := range groups {
		g, _ := group.(map[string]any)
		hooksList, _ := g["hooks"].([]any)
		for _, h := range hooksList {
			hm, _ := h.(map[string]any)
			if cmd, _ := hm["command"].(string); cmd != "" {
				set[cmd] = true
			}
		}
	}
	return set
}

// hasNewCommand reports whether the matcher group carries a command not yet
// in wired.
func hasNewCommand(group any, wired map[string]bool) bool {
	g, _ := group.(map[string]any)
	hooksList, _ := g["hooks"].([]any)
	for _, h := range hooksList {
		hm, _ := h.(map[string]any)
		if cmd, _ := hm["command"].(string); cmd != "" && !wired[cmd] {
			return true
		}
	}
	return false
}
