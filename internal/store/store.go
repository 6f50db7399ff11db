package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
// Delete on an absent path is a no-op success, matching the backing
// store's own semantics.
var ErrNotFound = errors.New("document not found")

// Document is one stored record together with its store-assigned id.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// SnapshotFunc receives the full current snapshot of a collection. It is
// invoked once immediately on subscribe and again after every change to
// the collection. On a delivery failure snapshot is nil and err describes
// the cause; the subscription stays open.
type SnapshotFunc func(snapshot []Document, err error)

// Subscription is a standing snapshot listener. Unsubscribe releases the
// underlying resources and must be called before the owner is discarded;
// it is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// DocumentStore is the hierarchical document store the core is built
// against. Paths are slash separated and alternate collection and
// document segments: "events/{eventId}", "events/{eventId}/attendees/{userId}".
type DocumentStore interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)
	// Set writes the full document at path, creating it if absent.
	Set(ctx context.Context, path string, fields map[string]interface{}) error
	// Delete removes the document at path. Absent documents are a no-op.
	Delete(ctx context.Context, path string) error
	// Add creates a document in the collection with a store-generated id,
	// stable for the document's lifetime, and returns that id.
	Add(ctx context.Context, collectionPath string, fields map[string]interface{}) (string, error)
	// List returns every document in the collection.
	List(ctx context.Context, collectionPath string) ([]Document, error)
	// Subscribe registers fn as a live snapshot listener on the collection.
	Subscribe(ctx context.Context, collectionPath string, fn SnapshotFunc) (Subscription, error)
}

// SplitDocPath validates a document path and returns its parent
// collection path and document id. A document path has an even number
// of non-empty segments.
func SplitDocPath(path string) (collectionPath, id string, err error) {
	segs, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(segs)%2 != 0 {
		return "", "", fmt.Errorf("not a document path: %q", path)
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

// ValidateCollectionPath checks that path names a collection: an odd
// number of non-empty segments.
func ValidateCollectionPath(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 1 {
		return fmt.Errorf("not a collection path: %q", path)
	}
	return nil
}

func segments(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("invalid path: %q", path)
		}
	}
	return segs, nil
}

// StringField reads a string field, returning "" when the field is
// absent or of a different type.
func (d Document) StringField(key string) string {
	if v, ok := d.Fields[key].(string); ok {
		return v
	}
	return ""
}

// IntField reads an integer field regardless of how the backing store
// decoded the number.
func (d Document) IntField(key string) (int64, bool) {
	switch v := d.Fields[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
