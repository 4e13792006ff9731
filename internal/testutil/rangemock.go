// Package testutil provides mock range collaborators for the transfer engine.
package testutil

import (
	"context"
	"sync"

	"github.com/tidecloud/tidecloud-sdk-go/internal/transfer"
)

// WrittenRange records one range write observed by MockRangeWriter.
type WrittenRange struct {
	Offset           int64
	Data             []byte
	TransactionalMD5 string
}

// MockRangeWriter is a mock implementation of the engine's RangeWriter.
// Function fields customize behavior; all calls are recorded. It is safe for
// concurrent use.
type MockRangeWriter struct {
	CreateFunc     func(ctx context.Context, size int64) error
	WriteRangeFunc func(ctx context.Context, offset int64, data []byte, transactionalMD5 string) error
	FinalizeFunc   func(ctx context.Context, contentMD5 string) (transfer.Properties, error)

	mu            sync.Mutex
	CreateCalls   int
	CreatedSize   int64
	Writes        []WrittenRange
	FinalizeCalls int
	FinalizedMD5  string
}

// Create records the declared size and dispatches to CreateFunc.
func (m *MockRangeWriter) Create(ctx context.Context, size int64) error {
	m.mu.Lock()
	m.CreateCalls++
	m.CreatedSize = size
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, size)
	}
	return nil
}

// WriteRange records the write and dispatches to WriteRangeFunc.
// The data slice is copied; the engine recycles its buffers.
func (m *MockRangeWriter) WriteRange(ctx context.Context, offset int64, data []byte, transactionalMD5 string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.Writes = append(m.Writes, WrittenRange{
		Offset:           offset,
		Data:             cp,
		TransactionalMD5: transactionalMD5,
	})
	m.mu.Unlock()

	if m.WriteRangeFunc != nil {
		return m.WriteRangeFunc(ctx, offset, data, transactionalMD5)
	}
	return nil
}

// Finalize records the call and dispatches to FinalizeFunc.
func (m *MockRangeWriter) Finalize(ctx context.Context, contentMD5 string) (transfer.Properties, error) {
	m.mu.Lock()
	m.FinalizeCalls++
	m.FinalizedMD5 = contentMD5
	m.mu.Unlock()

	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, contentMD5)
	}
	return transfer.Properties{ContentMD5: contentMD5}, nil
}

// WrittenRanges returns a snapshot of the recorded writes.
func (m *MockRangeWriter) WrittenRanges() []WrittenRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WrittenRange, len(m.Writes))
	copy(out, m.Writes)
	return out
}

// Assemble reconstructs the written payload into a buffer of the given size,
// with unwritten ranges left as zeros.
func (m *MockRangeWriter) Assemble(size int64) []byte {
	buf := make([]byte, size)
	for _, w := range m.WrittenRanges() {
		copy(buf[w.Offset:], w.Data)
	}
	return buf
}

// MockRangeReader is a mock implementation of the engine's RangeReader
// backed by an in-memory payload. Function fields override behavior per call.
type MockRangeReader struct {
	Content    []byte
	ContentMD5 string
	ETag       string

	PropertiesFunc func(ctx context.Context) (transfer.Properties, error)
	ReadRangeFunc  func(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error)

	mu        sync.Mutex
	ReadCalls int
}

// Properties reports the payload's size unless overridden.
func (m *MockRangeReader) Properties(ctx context.Context) (transfer.Properties, error) {
	if m.PropertiesFunc != nil {
		return m.PropertiesFunc(ctx)
	}
	return transfer.Properties{
		ContentLength: int64(len(m.Content)),
		ContentMD5:    m.ContentMD5,
		ETag:          m.ETag,
	}, nil
}

// ReadRange serves a slice of the payload unless overridden. When wantMD5 is
// set, the per-range MD5 of the served bytes is returned alongside.
func (m *MockRangeReader) ReadRange(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error) {
	m.mu.Lock()
	m.ReadCalls++
	m.mu.Unlock()

	if m.ReadRangeFunc != nil {
		return m.ReadRangeFunc(ctx, offset, length, wantMD5)
	}

	end := offset + length
	if end > int64(len(m.Content)) {
		end = int64(len(m.Content))
	}
	data := make([]byte, end-offset)
	copy(data, m.Content[offset:end])

	md5sum := ""
	if wantMD5 {
		md5sum = RangeMD5(data)
	}
	return data, md5sum, nil
}

// ReadRangeCount returns the number of range reads served.
func (m *MockRangeReader) ReadRangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReadCalls
}
