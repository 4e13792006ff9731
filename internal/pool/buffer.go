// Package pool provides the fixed-count buffer pool used by the transfer engine.
//
// The pool bounds peak memory during chunked transfers: it holds at most
// `count` buffers of the chunk size, and a producer that has exhausted the
// pool blocks until a completing range operation returns one. This is the
// backpressure mechanism that keeps local reads from outrunning remote writes.
package pool

import (
	"context"
)

// BufferPool hands out reusable fixed-size buffers. Acquire blocks when all
// buffers are checked out; Release returns a buffer and wakes one waiter.
// Acquisition never fails, it only delays (or observes context cancellation).
type BufferPool struct {
	bufs    chan []byte
	bufSize int
}

// New creates a pool of count buffers of bufSize bytes each.
// All buffers are allocated up front so that acquisition is allocation-free.
func New(count int, bufSize int) *BufferPool {
	if count <= 0 {
		count = 1
	}
	p := &BufferPool{
		bufs:    make(chan []byte, count),
		bufSize: bufSize,
	}
	for i := 0; i < count; i++ {
		p.bufs <- make([]byte, bufSize)
	}
	return p
}

// Acquire returns a buffer of the pool's chunk size, blocking until one is
// free or the context is cancelled.
func (p *BufferPool) Acquire(ctx context.Context) ([]byte, error) {
	select {
	case buf := <-p.bufs:
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a buffer to the pool. The buffer must have been obtained
// from Acquire and must not be used after release. Releasing a foreign or
// duplicate buffer is a programming error; the extra buffer is dropped rather
// than blocking the releaser.
func (p *BufferPool) Release(buf []byte) {
	if cap(buf) < p.bufSize {
		return
	}
	select {
	case p.bufs <- buf[:p.bufSize]:
	default:
	}
}

// BufferSize returns the size of the buffers this pool hands out.
func (p *BufferPool) BufferSize() int {
	return p.bufSize
}

// Free returns the number of buffers currently available without blocking.
func (p *BufferPool) Free() int {
	return len(p.bufs)
}
