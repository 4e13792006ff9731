package progress

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver captures observer callbacks for assertion.
type recordingObserver struct {
	mu        sync.Mutex
	updates   [][2]int64
	completed bool
	err       error
}

func (o *recordingObserver) Update(transferred, total int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, [2]int64{transferred, total})
}

func (o *recordingObserver) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = true
}

func (o *recordingObserver) Error(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func TestTrackerAccumulates(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(100, obs)

	tr.Add(40)
	tr.Add(60)

	snap := tr.Snapshot()
	assert.Equal(t, int64(100), snap.TotalBytes)
	assert.Equal(t, int64(100), snap.CompletedBytes)

	require.Len(t, obs.updates, 2)
	assert.Equal(t, [2]int64{40, 100}, obs.updates[0])
	assert.Equal(t, [2]int64{100, 100}, obs.updates[1])
}

func TestTrackerConcurrentAddsAreMonotonic(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(1000, obs)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.Add(10)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), tr.GetCompleteSize())
	// Each observed cumulative value is unique and the set covers every step:
	// the counter never goes backwards.
	seen := make(map[int64]bool)
	for _, u := range obs.updates {
		assert.False(t, seen[u[0]], "cumulative value %d reported twice", u[0])
		seen[u[0]] = true
	}
	assert.Len(t, seen, 100)
}

func TestTrackerPercent(t *testing.T) {
	tr := NewTracker(200, nil)
	assert.InDelta(t, 0.0, tr.GetCompletePercent(), 1e-9)
	tr.Add(50)
	assert.InDelta(t, 25.0, tr.GetCompletePercent(), 1e-9)
	tr.Add(150)
	assert.InDelta(t, 100.0, tr.GetCompletePercent(), 1e-9)
}

func TestTrackerUnknownTotal(t *testing.T) {
	tr := NewTracker(UnknownTotal, nil)
	tr.Add(512)
	assert.Equal(t, int64(-1), tr.GetTotalSize())
	assert.Equal(t, int64(512), tr.GetCompleteSize())
	assert.InDelta(t, 0.0, tr.GetCompletePercent(), 1e-9, "percent undefined while total unknown")
}

func TestTrackerEmptyTransferIsComplete(t *testing.T) {
	tr := NewTracker(0, nil)
	assert.InDelta(t, 100.0, tr.GetCompletePercent(), 1e-9)
}

func TestTrackerObserverTerminalCallbacks(t *testing.T) {
	obs := &recordingObserver{}
	tr := NewTracker(10, obs)

	tr.Complete()
	assert.True(t, obs.completed)

	failure := errors.New("range write failed")
	tr.Fail(failure)
	assert.Equal(t, failure, obs.err)
}

func TestTrackerNilObserver(t *testing.T) {
	tr := NewTracker(10, nil)
	// Must not panic without an observer.
	tr.Add(5)
	tr.Complete()
	tr.Fail(errors.New("x"))
}
