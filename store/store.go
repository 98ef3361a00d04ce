// Package store defines the keyed collection abstraction every persistence backend implements,
// plus the JSON-file and SQL (GORM) backends. The Firestore backend lives in package db.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no record has the requested key.
var ErrNotFound = errors.New("record not found")

// KeyFunc extracts the unique key of a record.
type KeyFunc[T any] func(T) string

// Collection is a keyed set of records of one type.
type Collection[T any] interface {
	// All returns the records in insertion order. Upserts keep a record's place. Records inserted
	// by one Put may come back in key order rather than argument order.
	All(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Put inserts or replaces the given records in one write.
	Put(ctx context.Context, items ...T) error
	// Delete removes the given keys; unknown keys are ignored.
	Delete(ctx context.Context, ids ...string) error
	// Replace swaps the whole content of the collection.
	Replace(ctx context.Context, items []T) error
}
