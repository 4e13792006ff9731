// Package storagetypes provides shared type definitions for the storage module.
package storagetypes

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Size limits imposed by the Tide Cloud storage service.
const (
	// DefaultChunkSize is the default size of one range-write call (4 MiB)
	DefaultChunkSize = 4 * 1024 * 1024

	// MaxRangeSize is the largest byte span one range-write call may carry (4 MiB)
	MaxRangeSize = 4 * 1024 * 1024

	// MaxFileSize is the largest file the service accepts (4 TiB)
	MaxFileSize = 4 * 1024 * 1024 * 1024 * 1024

	// DefaultParallelism is the default number of concurrent range operations
	DefaultParallelism = 1
)

// FileProperties contains the service-side properties of a file or blob.
type FileProperties struct {
	// ContentLength is the declared size of the resource in bytes
	ContentLength int64

	// ContentType is the MIME type of the resource
	ContentType string

	// ContentMD5 is the base64-encoded whole-object MD5, if stored
	ContentMD5 string

	// ETag is the entity tag for the resource
	ETag string

	// LastModified is when the resource was last modified
	LastModified time.Time

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// ShareProperties contains the service-side properties of a share or container.
type ShareProperties struct {
	// QuotaGB is the share quota in gigabytes (0 if unset)
	QuotaGB int

	// ETag is the entity tag for the share
	ETag string

	// LastModified is when the share was last modified
	LastModified time.Time

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// ShareItem describes one share in a list result.
type ShareItem struct {
	// Name is the share name
	Name string

	// QuotaGB is the share quota in gigabytes
	QuotaGB int

	// LastModified is when the share was last modified
	LastModified time.Time
}

// DirectoryItem describes one directory in a list result.
type DirectoryItem struct {
	// Name is the directory name relative to its parent
	Name string
}

// FileItem describes one file in a list result.
type FileItem struct {
	// Name is the file name relative to its parent directory
	Name string

	// ContentLength is the file size in bytes
	ContentLength int64
}

// BlobItem describes one blob in a list result.
type BlobItem struct {
	// Name is the blob name
	Name string

	// ContentLength is the blob size in bytes
	ContentLength int64

	// ContentMD5 is the stored whole-object MD5, if any
	ContentMD5 string

	// LastModified is when the blob was last modified
	LastModified time.Time
}

// FileRange describes one committed byte range of a file, as returned by
// the range-list operation. Both bounds are inclusive.
type FileRange struct {
	Start int64
	End   int64
}

// ProgressTracker defines the observer interface for transfer progress.
// Implementations receive real-time updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called on each completed range with cumulative progress.
	// totalBytes is -1 when the total is not known.
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// TransferProgress is the pollable progress contract exposed to callers.
// A transfer's progress object remains readable for the lifetime of the call.
type TransferProgress interface {
	// GetTotalSize returns the total expected size in bytes, or -1 if unknown
	GetTotalSize() int64

	// GetCompleteSize returns the bytes transferred so far
	GetCompleteSize() int64

	// GetCompletePercent returns progress as a percentage in [0, 100].
	// It returns 0 while the total size is unknown.
	GetCompletePercent() float64
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Share is the share or container the resource was uploaded to
	Share string

	// Path is the resource path that was uploaded
	Path string

	// Size is the size of the uploaded resource in bytes
	Size int64

	// ContentMD5 is the stored whole-object MD5, if content MD5 storage was requested
	ContentMD5 string

	// ETag is the entity tag after the final properties call
	ETag string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Share is the share or container the resource was downloaded from
	Share string

	// Path is the resource path that was downloaded
	Path string

	// Size is the number of bytes written to the destination
	Size int64

	// ContentMD5 is the service-stored whole-object MD5, if any
	ContentMD5 string

	// ETag is the entity tag of the downloaded resource
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// ListSharesResult contains one page of a share listing.
type ListSharesResult struct {
	// Shares contains the listed shares
	Shares []ShareItem

	// NextMarker is the continuation marker for the next page, empty when done
	NextMarker string
}

// ListDirectoryResult contains one page of a directory listing.
type ListDirectoryResult struct {
	// Directories contains the listed subdirectories
	Directories []DirectoryItem

	// Files contains the listed files
	Files []FileItem

	// NextMarker is the continuation marker for the next page, empty when done
	NextMarker string
}

// ListBlobsResult contains one page of a blob listing.
type ListBlobsResult struct {
	// Blobs contains the listed blobs
	Blobs []BlobItem

	// NextMarker is the continuation marker for the next page, empty when done
	NextMarker string
}

/// ContainerItem is one container in a container listing.
type ContainerItem struct {
	// Name is the container name
	Name string

	// LastModified is when the container was last modified
	LastModified time.Time
}

// ListContainersResult contains one page of a container listing.
type ListContainersResult struct {
	// Containers contains the listed containers
	Containers []ContainerItem

	// NextMarker is the continuation marker for the next page, empty when done
	NextMarker string
}

// Entity is one table entity: a property map keyed by property name.
// PartitionKey and RowKey are required properties.
type Entity map[string]interface{}

// QueryEntitiesResult contains one page of a table entity query.
type QueryEntitiesResult struct {
	// Entities contains the matched entities
	Entities []Entity

	// NextPartitionKey and NextRowKey form the continuation token for the
	// next page; both empty when the query is exhausted.
	NextPartitionKey string
	NextRowKey       string
}

// BatchResult contains the result of a batch directory upload.
type BatchResult struct {
	// FilesUploaded is the number of files successfully uploaded
	FilesUploaded int

	// BytesUploaded is the total bytes uploaded
	BytesUploaded int64

	// Errors contains any per-file errors that occurred
	Errors []BatchError

	// Duration is how long the batch took
	Duration time.Duration
}

// BatchError represents an error that occurred during a batch upload.
type BatchError struct {
	// LocalPath is the local file path that failed to upload
	LocalPath string

	// RemotePath is the remote path that failed to upload to
	RemotePath string

	// Err is the underlying error
	Err error
}

// Configuration types for functional options

// ClientConfig holds configuration for the storage client.
type ClientConfig struct {
	AccountName      string
	AccountKey       string
	Endpoint         string
	UseHTTPS         bool
	APIVersion       string
	MaxRetries       int
	Timeout          time.Duration
	Parallelism      int
	ChunkSize        int64
	Logger           logrus.FieldLogger
	CustomHTTPClient *http.Client
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType string
	Metadata    map[string]string

	// ContentMD5 is an explicit whole-object MD5 supplied by the caller.
	// When set together with StoreContentMD5, the engine stores it instead
	// of computing its own.
	ContentMD5 string

	// StoreContentMD5 requests that a whole-object MD5 be stored as resource
	// metadata after a successful transfer.
	StoreContentMD5 bool

	// UseTransactionalMD5 requests a per-range MD5 on every range-write call.
	UseTransactionalMD5 bool

	ChunkSize       int64
	Parallelism     int
	ProgressTracker ProgressTracker
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	// RangeStart and RangeEnd bound the download, both inclusive.
	// Nil means from the start / to the end of the resource.
	RangeStart *int64
	RangeEnd   *int64

	// DisableContentMD5Validation turns off per-range MD5 verification.
	DisableContentMD5Validation bool

	ChunkSize       int64
	Parallelism     int
	ProgressTracker ProgressTracker
}

// ListOptionConfig holds configuration for list operations via functional options.
type ListOptionConfig struct {
	Prefix     string
	Marker     string
	MaxResults int
}

// Option is a functional option for configuring the storage client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
	// ListOption is a functional option for configuring list operations.
	ListOption func(*ListOptionConfig)
)
