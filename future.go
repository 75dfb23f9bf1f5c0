package goHash

import (
	"context"
	"sync"

	"github.com/MrEthical07/goHash/internal/pool"
)

// Future is the pending result of Compute or Verify.
//
// The worker pool only runs the key derivation. Everything after it (encoding
// the credential, comparing keys) runs in the goroutine that first calls
// Await, never on a pool goroutine. Await may be called any number of times,
// from any goroutine; all callers observe the same result.
type Future[T any] struct {
	ch   <-chan pool.Outcome
	then func(pool.Outcome) (T, error)

	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any](ch <-chan pool.Outcome, then func(pool.Outcome) (T, error)) *Future[T] {
	return &Future[T]{
		ch:   ch,
		then: then,
		done: make(chan struct{}),
	}
}

func resolvedFuture[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	f.once.Do(func() { close(f.done) })
	return f
}

// Await blocks until the result is available or ctx is done. A ctx error
// abandons the wait only; the derivation keeps running and a later Await
// still returns its result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	select {
	case out := <-f.ch:
		f.resolve(out)
		return f.val, f.err
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved reports whether a previous Await already produced the result.
func (f *Future[T]) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[T]) resolve(out pool.Outcome) {
	f.once.Do(func() {
		f.val, f.err = f.then(out)
		close(f.done)
	})
}
