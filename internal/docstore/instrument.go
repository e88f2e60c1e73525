package docstore

import (
	"context"
	"errors"

	"bigvyapaar/internal/observability"
)

type instrumented[T Document] struct {
	next    Collection[T]
	backend string
}

// Instrument wraps c so every call records a span and Prometheus metrics.
// ErrNotFound is an expected outcome and is not counted as a failure.
func Instrument[T Document](c Collection[T], backend string) Collection[T] {
	return &instrumented[T]{next: c, backend: backend}
}

func (i *instrumented[T]) Name() string { return i.next.Name() }

func (i *instrumented[T]) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := observability.StartStoreSpan(ctx, i.backend, i.next.Name(), op)
	track := observability.TrackStoreOperation(i.backend, i.next.Name(), op)
	return ctx, func(err error) {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
			err = nil
		}
		track(err)
		observability.EndSpan(span, err)
	}
}

func (i *instrumented[T]) Get(ctx context.Context, id string) (doc T, err error) {
	ctx, done := i.observe(ctx, "get")
	defer func() { done(err) }()
	return i.next.Get(ctx, id)
}

func (i *instrumented[T]) List(ctx context.Context) (docs []T, err error) {
	ctx, done := i.observe(ctx, "list")
	defer func() { done(err) }()
	return i.next.List(ctx)
}

func (i *instrumented[T]) Create(ctx context.Context, doc T) (err error) {
	ctx, done := i.observe(ctx, "create")
	defer func() { done(err) }()
	return i.next.Create(ctx, doc)
}

func (i *instrumented[T]) Replace(ctx context.Context, doc T) (err error) {
	ctx, done := i.observe(ctx, "replace")
	defer func() { done(err) }()
	return i.next.Replace(ctx, doc)
}

func (i *instrumented[T]) Upsert(ctx context.Context, doc T) (err error) {
	ctx, done := i.observe(ctx, "upsert")
	defer func() { done(err) }()
	return i.next.Upsert(ctx, doc)
}

func (i *instrumented[T]) Delete(ctx context.Context, id string) (err error) {
	ctx, done := i.observe(ctx, "delete")
	defer func() { done(err) }()
	return i.next.Delete(ctx, id)
}

func (i *instrumented[T]) Mutate(ctx context.Context, id string, fn func(doc T) error) (doc T, err error) {
	ctx, done := i.observe(ctx, "mutate")
	defer func() { done(err) }()
	return i.next.Mutate(ctx, id, fn)
}
