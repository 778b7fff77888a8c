package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document ID cannot be found in a collection.
var ErrNotFound = errors.New("document not found")

// Store defines the interface for persisting named JSON documents.
// A collection groups related documents (e.g. "experiments", "queue"),
// which lets installer status, experiment records and task snapshots
// share a single persistence port.
type Store interface {
	// Save persists v (JSON-marshalable) under collection/id.
	Save(ctx context.Context, collection, id string, v any) error

	// Load decodes the document at collection/id into v.
	// Returns ErrNotFound if the document does not exist.
	Load(ctx context.Context, collection, id string, v any) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// List returns all document IDs in a collection.
	List(ctx context.Context, collection string) ([]string, error)
}
