package main

import (
	"context"
	"errors"
	"reflect"
)

// The backend keeps all state in a document store with a small, fixed
// operation set (point reads, create/replace, merge updates with array-set
// semantics, and filtered queries). Everything above this interface is
// storage-agnostic; tests and DATABASE_URL-less dev runs use the in-memory
// implementation, production uses Postgres.

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned by Create when the document id is already taken.
	ErrExists = errors.New("document already exists")
)

// Document is a stored record. Reads always carry the document id in the
// "id" field; writes ignore it.
type Document map[string]any

// DocumentStore is the persistence collaborator for the whole backend.
type DocumentStore interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or fully replaces the document.
	Set(ctx context.Context, collection, id string, fields Document) error
	// Create writes the document only if the id is free, otherwise ErrExists.
	// This is the uniqueness primitive the match detector relies on.
	Create(ctx context.Context, collection, id string, fields Document) error
	// Update merges fields into an existing document (ErrNotFound if absent).
	// Values produced by ArrayUnion/ArrayRemove are applied with set
	// semantics instead of being stored verbatim.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Query returns matching documents in a deterministic store order.
	Query(ctx context.Context, collection string, opts ...QueryOption) ([]Document, error)
}

// arrayOp is the sentinel value type behind ArrayUnion/ArrayRemove.
type arrayOp struct {
	union  bool
	values []any
}

// ArrayUnion marks a field update that adds the given values to an array
// field, skipping values already present. Adding an existing value is a
// no-op, which makes like/dislike/match appends idempotent.
func ArrayUnion(values ...any) any { return arrayOp{union: true, values: values} }

// ArrayRemove marks a field update that removes the given values from an
// array field. Removing an absent value is a no-op.
func ArrayRemove(values ...any) any { return arrayOp{union: false, values: values} }

// applyFieldOps merges an update payload into an existing document in place,
// resolving array sentinels. Shared by the in-memory and Postgres stores so
// both have identical merge semantics.
func applyFieldOps(doc Document, fields Document) {
	for key, value := range fields {
		op, ok := value.(arrayOp)
		if !ok {
			doc[key] = value
			continue
		}
		current, _ := doc[key].([]any)
		if op.union {
			for _, v := range op.values {
				if !containsValue(current, v) {
					current = append(current, v)
				}
			}
		} else {
			kept := current[:0]
			for _, existing := range current {
				if !containsValue(op.values, existing) {
					kept = append(kept, existing)
				}
			}
			current = kept
		}
		doc[key] = current
	}
}

func containsValue(values []any, target any) bool {
	for _, v := range values {
		if reflect.DeepEqual(v, target) {
			return true
		}
	}
	return false
}

// --- Query options ---

type queryFilter struct {
	field string
	op    string // "==" or "!="
	value any
}

type queryOptions struct {
	filters     []queryFilter
	orderByDesc string
	limit       int
}

// QueryOption configures a store query.
type QueryOption func(*queryOptions)

// Where filters documents whose field compares to value with op ("==", "!=").
func Where(field, op string, value any) QueryOption {
	return func(q *queryOptions) {
		q.filters = append(q.filters, queryFilter{field: field, op: op, value: value})
	}
}

// OrderByDesc sorts results by a numeric field, highest first.
func OrderByDesc(field string) QueryOption {
	return func(q *queryOptions) { q.orderByDesc = field }
}

// Limit caps the number of returned documents.
func Limit(n int) QueryOption {
	return func(q *queryOptions) { q.limit = n }
}

func buildQueryOptions(opts []QueryOption) queryOptions {
	var q queryOptions
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

func matchesFilter(doc Document, f queryFilter) bool {
	value := doc[f.field]
	equal := reflect.DeepEqual(value, f.value)
	if f.op == "!=" {
		return !equal
	}
	return equal
}
