package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	p := New(2, 64)
	assert.Equal(t, 2, p.Free())
	assert.Equal(t, 64, p.BufferSize())

	ctx := context.Background()
	a, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.Len(t, a, 64)

	b, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Free())

	p.Release(a)
	assert.Equal(t, 1, p.Free())
	p.Release(b)
	assert.Equal(t, 2, p.Free())
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p := New(1, 8)
	ctx := context.Background()

	buf, err := p.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan []byte)
	go func() {
		second, _ := p.Acquire(ctx)
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("acquire must block while the pool is exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(buf)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire must wake once a buffer is released")
	}
}

func TestAcquireObservesCancellation(t *testing.T) {
	p := New(1, 8)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := p.Acquire(ctx)
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		_, err := p.Acquire(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("blocked acquire must observe cancellation")
	}
}

func TestReleaseForeignBufferDropped(t *testing.T) {
	p := New(1, 8)

	// Undersized buffer is dropped rather than polluting the pool.
	p.Release(make([]byte, 4))
	assert.Equal(t, 1, p.Free())

	// Duplicate release beyond capacity is dropped rather than blocking.
	p.Release(make([]byte, 8))
	assert.Equal(t, 1, p.Free())
}

func TestZeroCountClampedToOne(t *testing.T) {
	p := New(0, 8)
	assert.Equal(t, 1, p.Free())
}
