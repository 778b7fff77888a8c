// Package installer materializes the embedded template pack into a target
// project: agent personas under .claude/agents/, hook wiring in
// .claude/settings.json, and the collective's own state directory.
package installer

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude-collective/collective/internal/logging"
)

//go:embed templates
var templates embed.FS

// Mode selects how much of the pack gets installed.
type Mode string

const (
	// ModeFull installs agents, hooks, settings, contract, and config.
	ModeFull Mode = "full"

	// ModeMinimal installs the hub agent, hooks, settings, and config.
	ModeMinimal Mode = "minimal"

	// ModeHooksOnly installs just the hook scripts and settings wiring.
	ModeHooksOnly Mode = "hooks-only"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeMinimal, ModeHooksOnly:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown install mode %q (want full, minimal, or hooks-only)", s)
}

// Policy decides what happens when a destination file already exists.
type Policy string

const (
	PolicySkip      Policy = "skip"
	PolicyOverwrite Policy = "overwrite"
	PolicyMerge     Policy = "merge" // settings.json only
)

// Options configures Install.
type Options struct {
	Mode   Mode
	Force  bool // overwrite existing files
	Backup bool // write <file>.bak before overwriting
	Logger *slog.Logger
}

// Action records what Install did with one file.
type Action struct {
	Path   string `json:"path"`
	Result string `json:"result"` // "created", "skipped", "overwritten", "merged"
}

// planned is one file the installer intends to write.
type planned struct {
	src    string // path inside the embedded pack, empty for generated files
	dest   string // relative to the target dir
	mode   os.FileMode
	policy Policy
}

// Install writes the template pack into dir according to opts and returns
// what it did, file by file.
func Install(dir string, opts Options) ([]Action, error) {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	plan, err := buildPlan(opts.Mode)
	if err != nil {
		return nil, err
	}

	var actions []Action
	for _, p := range plan {
		action, err := apply(dir, p, opts)
		if err != nil {
			return actions, err
		}
		actions = append(actions, action)
		logger.Debug("installed", "path", action.Path, "result", action.Result)
	}

	logger.Info("install complete", "mode", string(opts.Mode), "files", len(actions))
	return actions, nil
}

func buildPlan(mode Mode) ([]planned, error) {
	var plan []planned

	if mode != ModeHooksOnly {
		agents, err := fs.ReadDir(templates, "templates/agents")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded agents: %w", err)
		}
		for _, entry := range agents {
			if mode == ModeMinimal && entry.Name() != "routing-agent.md" {
				continue
			}
			plan = append(plan, planned{
				src:    "templates/agents/" + entry.Name(),
				dest:   filepath.Join(".claude", "agents", entry.Name()),
				mode:   0o644,
				policy: PolicySkip,
			})
		}
	}

	hookScripts, err := fs.ReadDir(templates, "templates/hooks")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded hooks: %w", err)
	}
	for _, entry := range hookScripts {
		plan = append(plan, planned{
			src:    "templates/hooks/" + entry.Name(),
			dest:   filepath.Join(".claude-collective", "hooks", entry.Name()),
			mode:   0o755,
			policy: PolicySkip,
		})
	}

	// settings.json is never clobbered: existing hook wiring is merged.
	plan = append(plan, planned{
		src:    "templates/settings.json",
		dest:   filepath.Join(".claude", "settings.json"),
		mode:   0o644,
		policy: PolicyMerge,
	})

	if mode == ModeFull {
		plan = append(plan, planned{
			src:    "templates/CONTRACT.md",
			dest:   filepath.Join(".claude-collective", "CONTRACT.md"),
			mode:   0o644,
			policy: PolicySkip,
		})
	}

	if mode != ModeHooksOnly {
		plan = append(plan, planned{
			src:    "templates/config.toml",
			dest:   filepath.Join(".claude-collective", "config.toml"),
			mode:   0o644,
			policy: PolicySkip,
		})
	}

	return plan, nil
}

func apply(dir string, p planned, opts Options) (Action, error) {
	destPath := filepath.Join(dir, p.dest)
	content, err := templates.ReadFile(p.src)
	if err != nil {
		return Action{}, fmt.Errorf("failed to read embedded template %s: %w", p.src, err)
	}

	_, statErr := os.Stat(destPath)
	exists := statErr == nil

	switch {
	case !exists:
		if err := writeFileAtomic(destPath, content, p.mode); err != nil {
			return Action{}, err
		}
		return Action{Path: p.dest, Result: "created"}, nil

	case p.policy == PolicyMerge:
		merged, changed, err := mergeSettings(destPath, content)
		if err != nil {
			return Action{}, err
		}
		if !changed {
			return Action{Path: p.dest, Result: "skipped"}, nil
		}
		if opts.Backup {
			if err := backup(destPath); err != nil {
				return Action{}, err
			}
		}
		if err := writeFileAtomic(destPath, merged, p.mode); err != nil {
			return Action{}, err
		}
		return Action{Path: p.dest, Result: "merged"}, nil

	case opts.Force:
		if opts.Backup {
			if err := backup(destPath); err != nil {
				return Action{}, err
			}
		}
		if err := writeFileAtomic(destPath, content, p.mode); err != nil {
			return Action{}, err
		}
		return Action{Path: p.dest, Result: "overwritten"}, nil

	default:
		return Action{Path: p.dest, Result: "skipped"}, nil
	}
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s for backup: %w", path, err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// writeFileAtomic writes via temp file + fsync + rename so an interrupted
// install never leaves a half-written file.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-install-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename into place: %w", err)
	}
	return nil
}

// TemplateAgentNames lists the agent files carried in the embedded pack.
func TemplateAgentNames() ([]string, error) {
	entries, err := fs.ReadDir(templates, "templates/agents")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".md"))
	}
	return names, nil
}
