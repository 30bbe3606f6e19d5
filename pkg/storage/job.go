package storage

import (
	"context"
)

type jobResult[T any] struct {
	value T
	err   error
}

// runJob runs fn on its own goroutine and blocks until it returns or ctx is done.
// On cancellation the job keeps running to completion in the background and its
// result is dropped; onAbandon, if set, receives the late value so it can be released.
func runJob[T any](ctx context.Context, op, path string, fn func() (T, error), onAbandon func(T)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, wrapError(op, path, err)
	}

	done := make(chan jobResult[T], 1)
	go func() {
		v, err := fn()
		done <- jobResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return zero, wrapError(op, path, r.err)
		}
		return r.value, nil
	case <-ctx.Done():
		if onAbandon != nil {
			go func() {
				if r := <-done; r.err == nil {
					onAbandon(r.value)
				}
			}()
		}
		return zero, wrapError(op, path, ctx.Err())
	}
}

// runVoid is runJob for operations without a result value
func runVoid(ctx context.Context, op, path string, fn func() error) error {
	_, err := runJob(ctx, op, path, func() (struct{}, error) {
		return struct{}{}, fn()
	}, nil)
	return err
}
