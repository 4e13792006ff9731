// Package chunk produces the ordered sequence of fixed-size chunks that the
// transfer engine uploads.
//
// Two source variants exist: a file-backed source over an io.ReaderAt that
// reads fixed windows by offset, and a stream-backed source that re-frames an
// io.Reader's arbitrary read sizes into fixed windows. Both can maintain a
// running whole-object MD5 over every byte read, finalized at end of stream.
// Only the file-backed variant detects all-zero chunks; the stream path never
// advertises that capability.
package chunk

import (
	"crypto/md5"
	"encoding/base64"
	"hash"
	"io"
)

// Chunk is one contiguous window of the object's byte range.
// Data aliases the caller-supplied buffer and is exclusively owned by one
// in-flight operation until released.
type Chunk struct {
	// Offset is the chunk's starting byte position in the object
	Offset int64

	// Data holds the chunk's bytes
	Data []byte

	// AllZero reports that every byte in Data is zero. Only set by sources
	// whose SkipsZeroChunks capability is enabled.
	AllZero bool
}

// Source produces the object's chunks strictly in offset order.
type Source interface {
	// Next fills buf with the next chunk and returns it. The returned
	// chunk's Data aliases buf. Next returns io.EOF after the final chunk
	// has been produced, and propagates the underlying read error as a
	// terminal signal otherwise.
	Next(buf []byte) (Chunk, error)

	// Size returns the total number of bytes the source will produce.
	Size() int64

	// ContentMD5 returns the base64-encoded MD5 over all bytes produced.
	// It is valid only after Next has returned io.EOF, and empty when hash
	// tracking is disabled.
	ContentMD5() string

	// SkipsZeroChunks reports whether the caller may elect not to transmit
	// chunks marked AllZero.
	SkipsZeroChunks() bool
}

// FileSource reads fixed-size windows from an io.ReaderAt.
type FileSource struct {
	r          io.ReaderAt
	size       int64
	offset     int64
	md5sum     hash.Hash
	digest     string
	detectZero bool
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithContentMD5 enables the running whole-object MD5.
func WithContentMD5() FileSourceOption {
	return func(s *FileSource) {
		s.md5sum = md5.New()
	}
}

// WithZeroChunkDetection enables all-zero chunk detection, letting the
// consumer skip transmitting sparse regions.
func WithZeroChunkDetection() FileSourceOption {
	return func(s *FileSource) {
		s.detectZero = true
	}
}

// NewFileSource creates a source over size bytes of r.
func NewFileSource(r io.ReaderAt, size int64, opts ...FileSourceOption) *FileSource {
	s := &FileSource{
		r:    r,
		size: size,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next reads the next window of up to len(buf) bytes.
func (s *FileSource) Next(buf []byte) (Chunk, error) {
	if s.offset >= s.size {
		s.finalize()
		return Chunk{}, io.EOF
	}

	n := int64(len(buf))
	if remaining := s.size - s.offset; remaining < n {
		n = remaining
	}

	data := buf[:n]
	if _, err := io.ReadFull(io.NewSectionReader(s.r, s.offset, n), data); err != nil {
		return Chunk{}, err
	}

	c := Chunk{
		Offset: s.offset,
		Data:   data,
	}
	if s.detectZero {
		c.AllZero = allZero(data)
	}
	if s.md5sum != nil {
		s.md5sum.Write(data)
	}
	s.offset += n
	return c, nil
}

// Size returns the total number of bytes the source will produce.
func (s *FileSource) Size() int64 {
	return s.size
}

// ContentMD5 returns the finalized whole-object MD5, valid after io.EOF.
func (s *FileSource) ContentMD5() string {
	return s.digest
}

// SkipsZeroChunks reports whether zero-chunk detection is enabled.
func (s *FileSource) SkipsZeroChunks() bool {
	return s.detectZero
}

func (s *FileSource) finalize() {
	if s.md5sum != nil && s.digest == "" {
		s.digest = base64.StdEncoding.EncodeToString(s.md5sum.Sum(nil))
	}
}

// StreamSource re-frames a push-style io.Reader into fixed-size windows.
// The reader's own read sizes do not line up with chunk boundaries; partial
// reads are accumulated until a full window (or the stream's end) is reached.
type StreamSource struct {
	r      io.Reader
	size   int64
	offset int64
	md5sum hash.Hash
	digest string
	done   bool
}

// NewStreamSource creates a source over size bytes of r. The declared size
// must match the stream's actual length; a short stream surfaces as an
// unexpected-EOF read error. computeMD5 enables the running whole-object MD5.
func NewStreamSource(r io.Reader, size int64, computeMD5 bool) *StreamSource {
	s := &StreamSource{
		r:    r,
		size: size,
	}
	if computeMD5 {
		s.md5sum = md5.New()
	}
	return s
}

// Next fills buf from the stream, buffering across short reads.
func (s *StreamSource) Next(buf []byte) (Chunk, error) {
	if s.done || s.offset >= s.size {
		s.finalizeStream()
		return Chunk{}, io.EOF
	}

	n := int64(len(buf))
	if remaining := s.size - s.offset; remaining < n {
		n = remaining
	}

	data := buf[:n]
	if _, err := io.ReadFull(s.r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Chunk{}, err
	}

	c := Chunk{
		Offset: s.offset,
		Data:   data,
	}
	if s.md5sum != nil {
		s.md5sum.Write(data)
	}
	s.offset += n
	return c, nil
}

// Size returns the declared stream length.
func (s *StreamSource) Size() int64 {
	return s.size
}

// ContentMD5 returns the finalized whole-object MD5, valid after io.EOF.
func (s *StreamSource) ContentMD5() string {
	return s.digest
}

// SkipsZeroChunks always reports false: the stream path never skips ranges.
func (s *StreamSource) SkipsZeroChunks() bool {
	return false
}

func (s *StreamSource) finalizeStream() {
	s.done = true
	if s.md5sum != nil && s.digest == "" {
		s.digest = base64.StdEncoding.EncodeToString(s.md5sum.Sum(nil))
	}
}

// allZero reports whether every byte of b is zero.
func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
