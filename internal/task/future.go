package task

import (
	"context"
	"sync"
)

// Future is a deferred result with at-most-once resolution. Await blocks
// until the producer resolves it or the context is cancelled; once resolved,
// every Await returns the same value without blocking again.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an unresolved future and its resolve function. Calling
// resolve more than once is a no-op after the first call.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	resolve := func(val T, err error) {
		f.once.Do(func() {
			f.val = val
			f.err = err
			close(f.done)
		})
	}
	return f, resolve
}

// Resolved returns an already-resolved future.
func Resolved[T any](val T, err error) *Future[T] {
	f, resolve := NewFuture[T]()
	resolve(val, err)
	return f
}

// Go runs fn on its own goroutine and returns a future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()
	go func() { resolve(fn()) }()
	return f
}

// Submit schedules fn on the pool and returns a future for its result.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()
	p.Go(func() { resolve(fn()) })
	return f
}

// Await blocks until the future resolves or ctx is cancelled.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has resolved without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
