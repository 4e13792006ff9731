// Package progress provides transfer progress accounting.
//
// A Tracker accumulates completed bytes from concurrently finishing range
// operations and exposes both the pollable snapshot contract and observer
// callbacks.
package progress

import (
	"sync/atomic"

	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// UnknownTotal marks a transfer whose total size is not known up front.
const UnknownTotal int64 = -1

// Snapshot is an immutable view of a transfer's progress at one point in time.
type Snapshot struct {
	// TotalBytes is the total expected size, or UnknownTotal
	TotalBytes int64

	// CompletedBytes is the bytes transferred so far
	CompletedBytes int64
}

// Tracker accumulates bytes transferred for one transfer session.
// Add may be called from multiple completing operations concurrently;
// the completed count is monotonically non-decreasing.
type Tracker struct {
	total     int64
	completed atomic.Int64
	observer  storagetypes.ProgressTracker
}

// NewTracker creates a tracker for a transfer of total bytes.
// Pass UnknownTotal when the size is not known. The observer may be nil.
func NewTracker(total int64, observer storagetypes.ProgressTracker) *Tracker {
	return &Tracker{
		total:    total,
		observer: observer,
	}
}

// Add records n more bytes as transferred and notifies the observer.
func (t *Tracker) Add(n int64) {
	completed := t.completed.Add(n)
	if t.observer != nil {
		t.observer.Update(completed, t.total)
	}
}

// Complete notifies the observer that the transfer finished successfully.
func (t *Tracker) Complete() {
	if t.observer != nil {
		t.observer.Complete()
	}
}

// Fail notifies the observer that the transfer failed.
func (t *Tracker) Fail(err error) {
	if t.observer != nil {
		t.observer.Error(err)
	}
}

// Snapshot returns the current progress as an immutable pair.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		TotalBytes:     t.total,
		CompletedBytes: t.completed.Load(),
	}
}

// GetTotalSize returns the total expected size, or -1 if unknown.
func (t *Tracker) GetTotalSize() int64 {
	return t.total
}

// GetCompleteSize returns the bytes transferred so far.
func (t *Tracker) GetCompleteSize() int64 {
	return t.completed.Load()
}

// GetCompletePercent returns progress as a percentage in [0, 100].
// It returns 0 while the total size is unknown, and 100 for an empty transfer.
func (t *Tracker) GetCompletePercent() float64 {
	if t.total < 0 {
		return 0
	}
	if t.total == 0 {
		return 100
	}
	return float64(t.completed.Load()) / float64(t.total) * 100
}

// compile-time check that Tracker satisfies the caller-facing contract
var _ storagetypes.TransferProgress = (*Tracker)(nil)
