package transfer_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/progress"
	"github.com/tidecloud/tidecloud-sdk-go/internal/testutil"
	"github.com/tidecloud/tidecloud-sdk-go/internal/transfer"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// sinkWriterAt collects positional writes into a fixed-size buffer.
type sinkWriterAt struct {
	mu  sync.Mutex
	buf []byte
}

func newSink(size int64) *sinkWriterAt {
	return &sinkWriterAt{buf: make([]byte, size)}
}

func (s *sinkWriterAt) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.buf[off:], p)
	return len(p), nil
}

func runDownload(
	t *testing.T,
	r transfer.RangeReader,
	dst *sinkWriterAt,
	start, length int64,
	obs storagetypes.ProgressTracker,
	cfg transfer.Config,
) error {
	t.Helper()
	tracker := progress.NewTracker(length, obs)
	return transfer.Download(context.Background(), r, dst, start, length, tracker, cfg)
}

func TestDownloadWholeObject(t *testing.T) {
	payload := testutil.GenerateData(10, 100)
	r := &testutil.MockRangeReader{Content: payload}
	dst := newSink(100)
	obs := &testutil.MockProgressTracker{}

	err := runDownload(t, r, dst, 0, 100, obs, transfer.Config{
		Parallelism: 3,
		ChunkSize:   32,
	})
	require.NoError(t, err)

	assert.Equal(t, payload, dst.buf)
	assert.Equal(t, 4, r.ReadRangeCount(), "100 bytes at 32-byte ranges is 4 reads")
	assert.True(t, obs.CompleteCalled)
	assert.Equal(t, int64(100), obs.BytesTransferred)
}

func TestDownloadByteRange(t *testing.T) {
	r := &testutil.MockRangeReader{Content: []byte("Hello, World!")}
	dst := newSink(2)

	// Bytes 2..3 inclusive of the payload.
	err := runDownload(t, r, dst, 2, 2, nil, transfer.Config{
		Parallelism: 1,
		ChunkSize:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ll"), dst.buf,
		"destination offsets are relative to the requested range start")
}

func TestDownloadZeroLength(t *testing.T) {
	r := &testutil.MockRangeReader{Content: []byte("data")}
	dst := newSink(0)
	obs := &testutil.MockProgressTracker{}

	err := runDownload(t, r, dst, 0, 0, obs, transfer.Config{
		Parallelism: 1,
		ChunkSize:   4,
	})
	require.NoError(t, err)
	assert.Zero(t, r.ReadRangeCount(), "no range calls for an empty download")
	assert.True(t, obs.CompleteCalled)
}

func TestDownloadVerifiesRangeMD5(t *testing.T) {
	payload := testutil.GenerateData(11, 64)
	r := &testutil.MockRangeReader{Content: payload}
	dst := newSink(64)

	err := runDownload(t, r, dst, 0, 64, nil, transfer.Config{
		Parallelism:         1,
		ChunkSize:           16,
		UseTransactionalMD5: true,
	})
	require.NoError(t, err)
	assert.Equal(t, payload, dst.buf)
}

func TestDownloadMD5MismatchIsFatalAndNotRetryable(t *testing.T) {
	payload := testutil.GenerateData(12, 32)
	r := &testutil.MockRangeReader{Content: payload}
	r.ReadRangeFunc = func(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error) {
		data := make([]byte, length)
		copy(data, payload[offset:offset+length])
		md5sum := testutil.RangeMD5(data)
		if offset == 16 {
			md5sum = testutil.RangeMD5([]byte("corrupted"))
		}
		return data, md5sum, nil
	}
	dst := newSink(32)
	obs := &testutil.MockProgressTracker{}

	err := runDownload(t, r, dst, 0, 32, obs, transfer.Config{
		Parallelism:         1,
		ChunkSize:           16,
		UseTransactionalMD5: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sdkerrors.ErrMD5Mismatch)
	assert.True(t, sdkerrors.IsNotRetryable(err),
		"integrity failures must not be retried: the bytes would come back identical")
	assert.True(t, obs.ErrorCalled)
	assert.False(t, obs.CompleteCalled)
}

func TestDownloadShortReadIsFatal(t *testing.T) {
	r := &testutil.MockRangeReader{}
	r.ReadRangeFunc = func(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error) {
		return make([]byte, length-1), "", nil
	}
	dst := newSink(32)

	err := runDownload(t, r, dst, 0, 32, nil, transfer.Config{
		Parallelism: 1,
		ChunkSize:   16,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sdkerrors.ErrLengthMismatch)
	assert.True(t, sdkerrors.IsNotRetryable(err))
}

func TestDownloadValidationCanBeDisabled(t *testing.T) {
	payload := testutil.GenerateData(13, 16)
	var sawMD5Request bool
	r := &testutil.MockRangeReader{Content: payload}
	r.ReadRangeFunc = func(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error) {
		if wantMD5 {
			sawMD5Request = true
		}
		// A stale stored MD5 would trip verification if it were on.
		return payload[offset : offset+length], testutil.RangeMD5([]byte("stale")), nil
	}
	dst := newSink(16)

	err := runDownload(t, r, dst, 0, 16, nil, transfer.Config{
		Parallelism:                 1,
		ChunkSize:                   16,
		UseTransactionalMD5:         true,
		DisableContentMD5Validation: true,
	})
	require.NoError(t, err)
	assert.False(t, sawMD5Request, "disabled validation must not request per-range MD5s")
}

func TestDownloadRangeOffsetsAreAbsolute(t *testing.T) {
	payload := testutil.GenerateData(14, 64)
	var mu sync.Mutex
	var requested []int64
	r := &testutil.MockRangeReader{Content: payload}
	r.ReadRangeFunc = func(ctx context.Context, offset, length int64, wantMD5 bool) ([]byte, string, error) {
		mu.Lock()
		requested = append(requested, offset)
		mu.Unlock()
		return payload[offset : offset+length], "", nil
	}
	dst := newSink(24)

	err := runDownload(t, r, dst, 40, 24, nil, transfer.Config{
		Parallelism: 1,
		ChunkSize:   16,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{40, 56}, requested, "service offsets include the range start")
	assert.Equal(t, payload[40:64], dst.buf)
}
