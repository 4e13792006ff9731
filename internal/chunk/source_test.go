package chunk

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wholeMD5(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// drain pulls every chunk from src using a fresh buffer of bufSize per call
// and returns the chunks' copied data and offsets.
func drain(t *testing.T, src Source, bufSize int) ([][]byte, []int64) {
	t.Helper()
	var datas [][]byte
	var offsets []int64
	for {
		buf := make([]byte, bufSize)
		c, err := src.Next(buf)
		if err == io.EOF {
			return datas, offsets
		}
		require.NoError(t, err)
		cp := make([]byte, len(c.Data))
		copy(cp, c.Data)
		datas = append(datas, cp)
		offsets = append(offsets, c.Offset)
	}
}

func TestFileSourceChunking(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		bufSize   int
		wantSizes []int
	}{
		{"exact multiple", 12, 4, []int{4, 4, 4}},
		{"short tail", 10, 4, []int{4, 4, 2}},
		{"single chunk", 3, 4, []int{3}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.size)
			for i := range payload {
				payload[i] = byte(i % 251)
			}

			src := NewFileSource(bytes.NewReader(payload), int64(tt.size))
			datas, offsets := drain(t, src, tt.bufSize)

			require.Len(t, datas, len(tt.wantSizes))
			next := int64(0)
			var reassembled []byte
			for i, data := range datas {
				assert.Len(t, data, tt.wantSizes[i])
				assert.Equal(t, next, offsets[i], "chunks must be contiguous")
				next += int64(len(data))
				reassembled = append(reassembled, data...)
			}
			assert.Equal(t, payload, reassembled, "chunks must cover the payload exactly once")
		})
	}
}

func TestFileSourceContentMD5BoundaryIndependence(t *testing.T) {
	payload := []byte("The quick brown fox jumps over the lazy dog")
	want := wholeMD5(payload)

	// The whole-object hash must not depend on how the payload is chunked.
	for _, bufSize := range []int{1, 3, 7, 16, 64} {
		src := NewFileSource(bytes.NewReader(payload), int64(len(payload)), WithContentMD5())
		drain(t, src, bufSize)
		assert.Equal(t, want, src.ContentMD5(), "buffer size %d", bufSize)
	}
}

func TestFileSourceContentMD5OnlyAfterEOF(t *testing.T) {
	payload := []byte("some data")
	src := NewFileSource(bytes.NewReader(payload), int64(len(payload)), WithContentMD5())

	buf := make([]byte, 4)
	_, err := src.Next(buf)
	require.NoError(t, err)
	assert.Empty(t, src.ContentMD5(), "digest must not be available mid-stream")

	drain(t, src, 4)
	assert.Equal(t, wholeMD5(payload), src.ContentMD5())
}

func TestFileSourceZeroDetection(t *testing.T) {
	// Chunk 0 is data, chunk 1 is all zeros, chunk 2 is data.
	payload := append([]byte{1, 2, 3, 4}, make([]byte, 4)...)
	payload = append(payload, 5, 6)

	src := NewFileSource(bytes.NewReader(payload), int64(len(payload)),
		WithZeroChunkDetection(), WithContentMD5())
	require.True(t, src.SkipsZeroChunks())

	var flags []bool
	for {
		c, err := src.Next(make([]byte, 4))
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		flags = append(flags, c.AllZero)
	}

	assert.Equal(t, []bool{false, true, false}, flags)
	// Skipped-or-not, every byte participates in the whole-object hash.
	assert.Equal(t, wholeMD5(payload), src.ContentMD5())
}

func TestFileSourceWithoutZeroDetection(t *testing.T) {
	payload := make([]byte, 8)
	src := NewFileSource(bytes.NewReader(payload), int64(len(payload)))
	require.False(t, src.SkipsZeroChunks())

	c, err := src.Next(make([]byte, 4))
	require.NoError(t, err)
	assert.False(t, c.AllZero, "detection disabled, flag must stay unset")
}

func TestStreamSourceReframing(t *testing.T) {
	payload := []byte("hello stream world")
	// iotest-style one-byte reader forces re-framing across short reads.
	src := NewStreamSource(iotestOneByteReader{bytes.NewReader(payload)}, int64(len(payload)), true)
	require.False(t, src.SkipsZeroChunks(), "stream sources never skip ranges")

	datas, offsets := drain(t, src, 5)
	require.Len(t, datas, 4)
	assert.Equal(t, []int64{0, 5, 10, 15}, offsets)

	var reassembled []byte
	for _, d := range datas {
		reassembled = append(reassembled, d...)
	}
	assert.Equal(t, payload, reassembled)
	assert.Equal(t, wholeMD5(payload), src.ContentMD5())
}

func TestStreamSourceShortStream(t *testing.T) {
	// Declared size exceeds what the reader can deliver.
	src := NewStreamSource(bytes.NewReader([]byte("abcd")), 10, false)

	_, err := src.Next(make([]byte, 4))
	require.NoError(t, err)

	_, err = src.Next(make([]byte, 4))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// iotestOneByteReader delivers at most one byte per Read.
type iotestOneByteReader struct {
	r io.Reader
}

func (r iotestOneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.r.Read(p[:1])
}
