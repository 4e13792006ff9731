// Package storage provides functional options for configuring client behavior.
// These options follow the functional options pattern for clean, composable configuration.
package storage

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// WithEndpoint sets a custom service endpoint URL.
// If not specified, the endpoint is derived from the account name.
func WithEndpoint(endpoint string) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithHTTPS controls whether the derived endpoint uses HTTPS.
// Default is true. Only disable for local testing.
func WithHTTPS(useHTTPS bool) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.UseHTTPS = useHTTPS
	}
}

// WithAPIVersion overrides the protocol version sent with every request.
func WithAPIVersion(version string) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.APIVersion = version
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed operations.
// Default is 3 retries. Retrying is a transport concern; the transfer engine
// itself never replays a range call.
func WithMaxRetries(maxRetries int) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual service calls.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithParallelism sets the default number of concurrent range operations for
// chunked transfers. Default is 1 (fully serialized).
func WithParallelism(parallelism int) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		if parallelism > 0 {
			c.Parallelism = parallelism
		}
	}
}

// WithChunkSize sets the default size of one range call for chunked
// transfers. Default is 4 MiB, which is also the service's maximum.
func WithChunkSize(chunkSize int64) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		if chunkSize > 0 {
			c.ChunkSize = chunkSize
		}
	}
}

// WithLogger sets a structured logger for request/response debug logging.
// The logger is also handed to the retrying transport.
func WithLogger(logger logrus.FieldLogger) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including proxies and TLS.
func WithCustomHTTPClient(client *http.Client) storagetypes.Option {
	return func(c *storagetypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithContentType sets the content type for upload operations.
// If not specified, UploadFile detects it from the file contents.
func WithContentType(contentType string) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for upload operations.
func WithMetadata(metadata map[string]string) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStoreContentMD5 stores a whole-object MD5 on the resource after a
// successful upload. Unless an explicit hash is supplied via WithContentMD5,
// the engine computes it over every byte read from the source.
func WithStoreContentMD5(store bool) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		c.StoreContentMD5 = store
	}
}

// WithContentMD5 supplies an explicit whole-object MD5 (base64-encoded) to
// store instead of computing one.
func WithContentMD5(contentMD5 string) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		c.ContentMD5 = contentMD5
	}
}

// WithTransactionalMD5 sends a per-range MD5 with every range write so the
// service verifies each call individually.
func WithTransactionalMD5(use bool) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		c.UseTransactionalMD5 = use
	}
}

// WithUploadChunkSize sets the range size for this upload.
// This overrides the client-level default for this specific upload.
func WithUploadChunkSize(chunkSize int64) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		if chunkSize > 0 {
			c.ChunkSize = chunkSize
		}
	}
}

// WithUploadParallelism sets the concurrency level for this upload.
// This overrides the client-level default for this specific upload.
func WithUploadParallelism(parallelism int) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		if parallelism > 0 {
			c.Parallelism = parallelism
		}
	}
}

// WithProgress sets a progress observer for upload operations.
func WithProgress(tracker storagetypes.ProgressTracker) storagetypes.UploadOption {
	return func(c *storagetypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithRange bounds a download to the inclusive byte range [start, end].
func WithRange(start, end int64) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		c.RangeStart = &start
		c.RangeEnd = &end
	}
}

// WithRangeFrom bounds a download to start at the given offset and run to
// the end of the resource.
func WithRangeFrom(start int64) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		c.RangeStart = &start
	}
}

// WithDownloadChunkSize sets the range size for this download.
func WithDownloadChunkSize(chunkSize int64) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		if chunkSize > 0 {
			c.ChunkSize = chunkSize
		}
	}
}

// WithDownloadParallelism sets the concurrency level for this download.
func WithDownloadParallelism(parallelism int) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		if parallelism > 0 {
			c.Parallelism = parallelism
		}
	}
}

// WithDisableContentMD5Validation turns off per-range MD5 verification on
// download. Validation is on by default.
func WithDisableContentMD5Validation(disable bool) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		c.DisableContentMD5Validation = disable
	}
}

// WithDownloadProgress sets a progress observer for download operations.
func WithDownloadProgress(tracker storagetypes.ProgressTracker) storagetypes.DownloadOption {
	return func(c *storagetypes.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithPrefix filters list operations to names beginning with prefix.
func WithPrefix(prefix string) storagetypes.ListOption {
	return func(c *storagetypes.ListOptionConfig) {
		c.Prefix = prefix
	}
}

// WithMarker continues a list operation from a previous page's NextMarker.
func WithMarker(marker string) storagetypes.ListOption {
	return func(c *storagetypes.ListOptionConfig) {
		c.Marker = marker
	}
}

// WithMaxResults caps the number of items returned per list page.
func WithMaxResults(maxResults int) storagetypes.ListOption {
	return func(c *storagetypes.ListOptionConfig) {
		if maxResults > 0 {
			c.MaxResults = maxResults
		}
	}
}
