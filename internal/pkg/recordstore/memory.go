package recordstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. It backs tests and the
// STORE_DRIVER=memory development mode.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	now         func() time.Time
	newID       func() string
}

// NewMemoryStore creates an empty store using the wall clock and UUID ids.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock replaces the clock used to stamp createdAt.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	if stored == nil {
		stored = Document{}
	}
	id := s.newID()
	stored[IDField] = id
	stored[CreatedAtField] = s.now().UTC()

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]Document)
		s.collections[collection] = coll
	}
	coll[id] = stored
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range sanitizePatch(patch).Clone() {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection, id, field string, expected any, patch Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("update_if", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return false, ErrNotFound
	}
	if current, ok := doc[field]; !ok || !equal(current, expected) {
		return false, nil
	}
	for k, v := range sanitizePatch(patch).Clone() {
		doc[k] = v
	}
	return true, nil
}

// Query returns matches ordered by createdAt, then id.
func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			out = append(out, doc.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ti, _ := out[i][CreatedAtField].(time.Time)
		tj, _ := out[j][CreatedAtField].(time.Time)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		idi, _ := out[i][IDField].(string)
		idj, _ := out[j][IDField].(string)
		return idi < idj
	})
	return out, nil
}
