package main

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemStore is an in-memory DocumentStore. It backs every test and is the
// fallback when DATABASE_URL is not set, so the backend can run without a
// database during development. Query results come back in insertion order,
// matching the deterministic ordering the candidate ranking depends on.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]*memCollection
}

type memCollection struct {
	docs  map[string]Document
	order []string // insertion order of document ids
}

func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]*memCollection)}
}

func (s *MemStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]Document)}
		s.collections[name] = c
	}
	return c
}

func (s *MemStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collection(collection).docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDocument(doc)
	out["id"] = id
	return out, nil
}

func (s *MemStore) Set(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneDocument(fields)
	return nil
}

func (s *MemStore) Create(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, ok := c.docs[id]; ok {
		return ErrExists
	}
	c.order = append(c.order, id)
	c.docs[id] = cloneDocument(fields)
	return nil
}

func (s *MemStore) Update(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	// Resolve array sentinels before normalizing, then store the merged copy.
	merged := cloneDocument(doc)
	applyFieldOps(merged, fields)
	c.docs[id] = cloneDocument(merged)
	return nil
}

func (s *MemStore) Query(_ context.Context, collection string, opts ...QueryOption) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := buildQueryOptions(opts)
	c := s.collection(collection)

	var results []Document
	for _, id := range c.order {
		doc := cloneDocument(c.docs[id])
		doc["id"] = id
		keep := true
		for _, f := range q.filters {
			if !matchesFilter(doc, f) {
				keep = false
				break
			}
		}
		if keep {
			results = append(results, doc)
		}
	}

	if q.orderByDesc != "" {
		field := q.orderByDesc
		sort.SliceStable(results, func(i, j int) bool {
			return numericField(results[i], field) > numericField(results[j], field)
		})
	}
	if q.limit > 0 && len(results) > q.limit {
		results = results[:q.limit]
	}
	return results, nil
}

// cloneDocument deep-copies a document through JSON, which also normalizes
// values ([]string becomes []any, time.Time becomes RFC 3339 text) the same
// way the Postgres store's jsonb column does. Callers never see aliased
// internal state.
func cloneDocument(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		// Documents are built from JSON-serializable models; treat anything
		// else as a programming error.
		panic("memstore: unserializable document: " + err.Error())
	}
	var out Document
	_ = json.Unmarshal(raw, &out)
	if out == nil {
		out = Document{}
	}
	return out
}

func numericField(doc Document, field string) float64 {
	if v, ok := doc[field].(float64); ok {
		return v
	}
	return 0
}
