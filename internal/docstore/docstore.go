// Package docstore is a small document-store abstraction: typed collections of
// JSON documents keyed by id, with single-document conditional writes.
// Nothing here spans more than one document.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"bigvyapaar/internal/observability"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrConflict means the document changed between read and write.
	ErrConflict = errors.New("docstore: version conflict")
	// ErrSkipWrite may be returned by a Mutate callback to finish without
	// writing. Mutate then returns the document as read and a nil error.
	ErrSkipWrite = errors.New("docstore: skip write")
)

// Document is implemented by pointer types stored in a collection.
type Document interface {
	GetID() string
	SetID(id string)
}

// Collection is one logical container of documents of type T.
type Collection[T Document] interface {
	Name() string
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	// Create fails with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, doc T) error
	// Replace fails with ErrNotFound if the document does not exist.
	Replace(ctx context.Context, doc T) error
	Upsert(ctx context.Context, doc T) error
	Delete(ctx context.Context, id string) error
	// Mutate reads the document, applies fn and writes it back only if
	// nobody else wrote it in between. Conflicts are retried with a fresh
	// read, so fn may run more than once and must only touch doc.
	Mutate(ctx context.Context, id string, fn func(doc T) error) (T, error)
}

// Backend is a storage engine collections can be opened on.
type Backend interface {
	Name() string
}

type options struct {
	maxRetries int
	keyPrefix  string
}

// Option configures a backend.
type Option func(*options)

// WithMaxRetries bounds how many times a conflicting Mutate is retried.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

func buildOptions(opts []Option) options {
	o := options{maxRetries: 5, keyPrefix: "docs"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the collection called name on backend b, instrumented with
// metrics and tracing.
func Open[T Document](b Backend, name string) (Collection[T], error) {
	switch be := b.(type) {
	case *RedisBackend:
		return Instrument[T](newRedisCollection[T](be, name), be.Name()), nil
	case *SQLBackend:
		return Instrument[T](newSQLCollection[T](be, name), be.Name()), nil
	default:
		return nil, fmt.Errorf("docstore: unsupported backend %T", b)
	}
}

func conflict(backend, collection string) error {
	observability.StoreConflicts.WithLabelValues(backend, collection).Inc()
	return ErrConflict
}
