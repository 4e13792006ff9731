package transfer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsEverything(t *testing.T) {
	ex := NewExecutor(4)
	var count atomic.Int32

	for i := 0; i < 20; i++ {
		err := ex.Submit(context.Background(), func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, ex.Wait())
	assert.Equal(t, int32(20), count.Load())
}

func TestExecutorBoundsConcurrency(t *testing.T) {
	const limit = 3
	ex := NewExecutor(limit)

	var current, peak atomic.Int32
	for i := 0; i < 30; i++ {
		err := ex.Submit(context.Background(), func(ctx context.Context) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, ex.Wait())
	assert.LessOrEqual(t, peak.Load(), int32(limit), "in-flight window must never exceed the limit")
	assert.Positive(t, peak.Load())
}

func TestExecutorParallelismOneSerializes(t *testing.T) {
	ex := NewExecutor(1)

	var mu sync.Mutex
	var order []int
	var overlap atomic.Bool
	var running atomic.Int32

	for i := 0; i < 10; i++ {
		i := i
		err := ex.Submit(context.Background(), func(ctx context.Context) error {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, ex.Wait())
	assert.False(t, overlap.Load(), "limit 1 must fully serialize operations")
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order,
		"serialized operations run in submission order")
}

func TestExecutorFirstErrorWins(t *testing.T) {
	ex := NewExecutor(1)
	first := errors.New("first failure")
	second := errors.New("second failure")

	require.NoError(t, ex.Submit(context.Background(), func(ctx context.Context) error {
		return first
	}))

	// Wait for the failure to be recorded, then confirm refusal.
	require.Eventually(t, func() bool {
		return ex.Err() != nil
	}, time.Second, time.Millisecond)

	err := ex.Submit(context.Background(), func(ctx context.Context) error {
		return second
	})
	assert.ErrorIs(t, err, first, "submissions after a failure are refused with the first error")
	assert.ErrorIs(t, ex.Wait(), first)
}

func TestExecutorFailRecordsProducerError(t *testing.T) {
	ex := NewExecutor(2)
	producerErr := errors.New("chunk read failed")

	ex.Fail(producerErr)
	ex.Fail(errors.New("later failure is dropped"))

	assert.ErrorIs(t, ex.Err(), producerErr)
	err := ex.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, producerErr)
}

func TestExecutorInFlightOperationsDrain(t *testing.T) {
	ex := NewExecutor(2)

	release := make(chan struct{})
	var drained atomic.Bool

	require.NoError(t, ex.Submit(context.Background(), func(ctx context.Context) error {
		<-release
		drained.Store(true)
		return nil
	}))
	require.NoError(t, ex.Submit(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	}))

	// The running operation is never cancelled; Wait blocks until it drains.
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	err := ex.Wait()
	require.Error(t, err)
	assert.True(t, drained.Load(), "in-flight work must drain before Wait returns")
}

func TestExecutorSubmitObservesCancellation(t *testing.T) {
	ex := NewExecutor(1)
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	require.NoError(t, ex.Submit(ctx, func(ctx context.Context) error {
		<-block
		return nil
	}))

	// The window is full; the next Submit blocks until cancellation.
	done := make(chan error)
	go func() {
		done <- ex.Submit(ctx, func(ctx context.Context) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("blocked Submit must observe cancellation")
	}

	close(block)
	assert.Error(t, ex.Wait())
}
