package transfer

import (
	"context"
	"crypto/md5"
	"encoding/base64"

	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// Properties is the subset of resource properties the engine reads and writes.
type Properties struct {
	// ContentLength is the declared size of the remote resource
	ContentLength int64

	// ContentMD5 is the stored whole-object MD5, base64-encoded
	ContentMD5 string

	// ETag is the resource entity tag
	ETag string
}

// RangeWriter is the remote-call surface an upload drives. Implementations
// wrap one resource (a file or blob) and are supplied by the operation layer;
// retry and timeout behavior belong to the transport underneath them.
type RangeWriter interface {
	// Create issues the "create empty resource of declared size" call.
	Create(ctx context.Context, size int64) error

	// WriteRange writes one contiguous span. transactionalMD5 is the
	// base64 MD5 of data, or empty when per-range verification is off.
	WriteRange(ctx context.Context, offset int64, data []byte, transactionalMD5 string) error

	// Finalize issues the closing properties call. contentMD5 carries the
	// whole-object hash to store, or empty when none was requested.
	Finalize(ctx context.Context, contentMD5 string) (Properties, error)
}

// RangeReader is the remote-call surface a download drives.
type RangeReader interface {
	// Properties fetches the resource's current properties.
	Properties(ctx context.Context) (Properties, error)

	// ReadRange reads length bytes at offset. When wantMD5 is set the
	// service's per-range MD5 is returned alongside the bytes.
	ReadRange(ctx context.Context, offset, length int64, wantMD5 bool) (data []byte, contentMD5 string, err error)
}

// Config is the immutable per-call engine configuration. It is snapshotted
// once at the start of a transfer and passed by value down the call chain.
type Config struct {
	// Parallelism bounds the number of concurrently running range calls.
	Parallelism int

	// ChunkSize is the size of one range call. Must not exceed the
	// service's maximum range size.
	ChunkSize int64

	// StoreContentMD5 stores a whole-object MD5 on the resource after a
	// successful upload.
	StoreContentMD5 bool

	// ContentMD5 is an explicit whole-object MD5 supplied by the caller;
	// when set, the engine stores it instead of computing one.
	ContentMD5 string

	// UseTransactionalMD5 sends a per-range MD5 with every range write.
	UseTransactionalMD5 bool

	// DisableContentMD5Validation turns off per-range verification on
	// download.
	DisableContentMD5Validation bool

	// SkipCreate suppresses the create call, for append-to-existing
	// operations where the resource is already declared.
	SkipCreate bool
}

// WithDefaults fills unset fields with the service defaults.
func (c Config) WithDefaults() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = storagetypes.DefaultParallelism
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = storagetypes.DefaultChunkSize
	}
	return c
}

// md5Base64 returns the base64-encoded MD5 of data.
func md5Base64(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
