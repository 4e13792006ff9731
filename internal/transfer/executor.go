// Package transfer implements the chunked transfer engine: a bounded batch
// executor that runs range operations with fixed concurrency, and the upload
// and download orchestrators that drive it.
//
// The engine owns the one strict ordering invariant of the whole subsystem:
// the finalize call happens only after every submitted range operation has
// reached a terminal state. Range completions themselves are unordered.
package transfer

import (
	"context"
	"sync"
)

// Executor runs unit operations with at most limit in flight.
//
// Submission order follows production order; a Submit call blocks while the
// in-flight window is full, which is the backpressure signal to the chunk
// producer. Once any operation fails, the first error is recorded and all
// subsequent Submit calls are refused, while already-running operations are
// left to drain; the remote calls are not cancellable mid-flight.
type Executor struct {
	slots chan struct{}
	wg    sync.WaitGroup

	mu       sync.Mutex
	firstErr error
}

// NewExecutor creates an executor with the given concurrency limit.
func NewExecutor(limit int) *Executor {
	if limit <= 0 {
		limit = 1
	}
	return &Executor{
		slots: make(chan struct{}, limit),
	}
}

// Submit schedules fn as one unit operation. It blocks until a slot in the
// in-flight window frees up, then starts fn on its own goroutine.
//
// Submit returns a non-nil error without starting fn when a previous
// operation has already failed (the recorded first error) or when ctx is
// cancelled while waiting for a slot. The producer must stop submitting on
// any error return.
func (e *Executor) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.Err(); err != nil {
		return err
	}

	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		e.Fail(ctx.Err())
		return ctx.Err()
	}

	// A failure may have been recorded while we were blocked on the window.
	if err := e.Err(); err != nil {
		<-e.slots
		return err
	}

	e.wg.Add(1)
	go func() {
		defer func() {
			<-e.slots
			e.wg.Done()
		}()
		if err := fn(ctx); err != nil {
			e.Fail(err)
		}
	}()
	return nil
}

// Fail records err as the session's fatal error. The first error recorded
// wins; later failures are dropped. Fail is also how the producer reports a
// chunk-read failure so that no further work is admitted.
func (e *Executor) Fail(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.firstErr == nil {
		e.firstErr = err
	}
}

// Err returns the recorded first error, or nil.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firstErr
}

// Wait signals that the producer is done and blocks until every submitted
// operation has reached a terminal state. It returns the first error seen,
// or nil when all operations succeeded. Wait must be called exactly once,
// after the final Submit.
func (e *Executor) Wait() error {
	e.wg.Wait()
	return e.Err()
}

// InFlight returns the current number of running operations.
func (e *Executor) InFlight() int {
	return len(e.slots)
}
