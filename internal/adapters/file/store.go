package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude-collective/collective/pkg/ports"
)

// Store implements ports.Store using the local filesystem.
// Each collection is a directory, each document a JSON file.
type Store struct {
	BasePath string
}

// New creates a new Store rooted at basePath.
// If basePath is empty, it defaults to ".claude-collective".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = ".claude-collective"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) dir(collection string) string {
	return filepath.Join(s.BasePath, collection)
}

func (s *Store) path(collection, id string) string {
	return filepath.Join(s.dir(collection), id+".json")
}

// Save persists the document as a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination.
func (s *Store) Save(ctx context.Context, collection, id string, v any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	dir := s.dir(collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure collection directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Close before rename (Windows cannot rename an open file).
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(collection, id)

	// On Windows, os.Rename fails if dest exists. The delete+rename window is
	// acceptable for CLI usage compared to a partially written file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing document for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load retrieves the document from its JSON file.
func (s *Store) Load(ctx context.Context, collection, id string, v any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to read document: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return nil
}

// Delete removes the document file.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	err := os.Remove(s.path(collection, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// List returns all document IDs in a collection.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection cannot be empty")
	}

	entries, err := os.ReadDir(s.dir(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if strings.HasPrefix(name, "tmp-") {
			continue // leftover from an interrupted Save
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

// validateKey rejects empty or path-escaping keys. Collections and IDs become
// path segments, so separators and ".." are never allowed.
func validateKey(collection, id string) error {
	if collection == "" {
		return fmt.Errorf("collection cannot be empty")
	}
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	for _, key := range []string{collection, id} {
		if strings.ContainsAny(key, `/\`) || key == ".." || strings.Contains(key, "..") {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	return nil
}
