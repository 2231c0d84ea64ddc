// Package recordstore is the document-store boundary used by the booking core.
// Backends store schemaless documents keyed by collection and id; typed
// entities and their validation live with the domain packages.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("record store unavailable")
)

const (
	// IDField and CreatedAtField are assigned by the store on Create and never updated.
	IDField        = "id"
	CreatedAtField = "createdAt"
)

// Document is a stored record with plain Go values: map[string]any for nested
// objects, []any for arrays, time.Time for timestamps.
type Document map[string]any

// Filter matches documents whose fields equal every given value.
type Filter map[string]any

// Store is the minimal contract every backend implements.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Update(ctx context.Context, collection, id string, patch Document) error
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
}

// ConditionalUpdater is implemented by backends that can compare-and-set a
// single field. applied is false when the document exists but field != expected.
type ConditionalUpdater interface {
	UpdateIf(ctx context.Context, collection, id, field string, expected any, patch Document) (applied bool, err error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// sanitizePatch drops the store-owned fields from an update.
func sanitizePatch(patch Document) Document {
	out := make(Document, len(patch))
	for k, v := range patch {
		if k == IDField || k == CreatedAtField || k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone deep-copies a document so callers never share nested maps with a store.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return cloneMap(t)
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

func matches(doc Document, filter Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if reflect.TypeOf(a) != nil && reflect.TypeOf(a).Comparable() &&
		reflect.TypeOf(b) != nil && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
