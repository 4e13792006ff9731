package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strconv"

	"github.com/google/go-querystring/query"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/chunk"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/validation"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// CreateContainer creates a new blob container.
// Container names follow the same rules as share names.
func (c *Client) CreateContainer(ctx context.Context, container string) error {
	if err := validation.ValidateShareName(container); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPut,
		Path:    "/" + container,
		Query:   restypeQuery("container"),
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewShareError("createContainer", container, err)
	}
	return nil
}

// DeleteContainer deletes a container and all of its blobs.
func (c *Client) DeleteContainer(ctx context.Context, container string) error {
	if err := validation.ValidateShareName(container); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    "/" + container,
		Query:   restypeQuery("container"),
		OKCodes: []int{http.StatusAccepted},
	})
	if err != nil {
		return errors.NewShareError("deleteContainer", container, err)
	}
	return nil
}

// ContainerExists reports whether a container exists.
func (c *Client) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := validation.ValidateShareName(container); err != nil {
		return false, err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/" + container,
		Query:  restypeQuery("container"),
	})
	if err != nil {
		if errors.IsShareNotFound(err) || errors.IsResourceNotFound(err) {
			return false, nil
		}
		return false, errors.NewShareError("containerExists", container, err)
	}
	return true, nil
}

// containerListing is the XML enumeration document for containers.
type containerListing struct {
	XMLName    xml.Name `xml:"EnumerationResults"`
	Containers []struct {
		Name         string `xml:"Name"`
		LastModified string `xml:"Properties>LastModified"`
	} `xml:"Containers>Container"`
	NextMarker string `xml:"NextMarker"`
}

// ListContainers lists the account's blob containers with support for prefix
// filtering and pagination.
func (c *Client) ListContainers(ctx context.Context, opts ...storagetypes.ListOption) (*storagetypes.ListContainersResult, error) {
	cfg := &storagetypes.ListOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q, err := query.Values(listQuery{
		Comp:       "list",
		Restype:    "container",
		Prefix:     cfg.Prefix,
		Marker:     cfg.Marker,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, errors.NewError("listContainers", err)
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/",
		Query:  q,
	})
	if err != nil {
		return nil, errors.NewError("listContainers", err)
	}

	var listing containerListing
	if err := xml.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewError("listContainers", err).WithMessage("malformed listing")
	}

	result := &storagetypes.ListContainersResult{
		NextMarker: listing.NextMarker,
	}
	for _, item := range listing.Containers {
		entry := storagetypes.ContainerItem{Name: item.Name}
		if t, err := http.ParseTime(item.LastModified); err == nil {
			entry.LastModified = t
		}
		result.Containers = append(result.Containers, entry)
	}
	return result, nil
}

// blobListing is the XML enumeration document for blobs within a container.
type blobListing struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Blobs   []struct {
		Name          string `xml:"Name"`
		ContentLength int64  `xml:"Properties>Content-Length"`
		ContentMD5    string `xml:"Properties>Content-MD5"`
		LastModified  string `xml:"Properties>LastModified"`
	} `xml:"Blobs>Blob"`
	NextMarker string `xml:"NextMarker"`
}

// ListBlobs lists the blobs of a container with support for prefix filtering
// and pagination.
func (c *Client) ListBlobs(ctx context.Context, container string, opts ...storagetypes.ListOption) (*storagetypes.ListBlobsResult, error) {
	if err := validation.ValidateShareName(container); err != nil {
		return nil, err
	}

	cfg := &storagetypes.ListOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q, err := query.Values(listQuery{
		Comp:       "list",
		Restype:    "container",
		Prefix:     cfg.Prefix,
		Marker:     cfg.Marker,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, errors.NewShareError("listBlobs", container, err)
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/" + container,
		Query:  q,
	})
	if err != nil {
		return nil, errors.NewShareError("listBlobs", container, err)
	}

	var listing blobListing
	if err := xml.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewShareError("listBlobs", container, err).
			WithMessage("malformed listing")
	}

	result := &storagetypes.ListBlobsResult{
		NextMarker: listing.NextMarker,
	}
	for _, b := range listing.Blobs {
		item := storagetypes.BlobItem{
			Name:          b.Name,
			ContentLength: b.ContentLength,
			ContentMD5:    b.ContentMD5,
		}
		if t, err := http.ParseTime(b.LastModified); err == nil {
			item.LastModified = t
		}
		result.Blobs = append(result.Blobs, item)
	}
	return result, nil
}

// PutBlob uploads a blob in a single call. The payload must not exceed the
// maximum range size; larger payloads go through UploadBlob.
func (c *Client) PutBlob(
	ctx context.Context,
	container, blob string,
	data []byte,
	opts ...storagetypes.UploadOption,
) error {
	if err := validateShareAndPath(container, blob); err != nil {
		return err
	}
	if int64(len(data)) > storagetypes.MaxRangeSize {
		return errors.NewResourceError("putBlob", container, blob, errors.ErrRangeTooLarge).
			WithMessage("payload exceeds single-call limit, use UploadBlob")
	}

	cfg := &storagetypes.UploadOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	header := http.Header{}
	header.Set(rest.HeaderBlobType, "block")
	if cfg.ContentType != "" {
		header.Set(rest.HeaderContentTypeSet, cfg.ContentType)
	}
	if cfg.ContentMD5 != "" {
		header.Set("Content-MD5", cfg.ContentMD5)
	}
	setMetadataHeaders(header, cfg.Metadata)

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPut,
		Path:    "/" + container + "/" + blob,
		Header:  header,
		Body:    data,
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewResourceError("putBlob", container, blob, err)
	}
	return nil
}

// GetBlob downloads a blob's full contents in a single call.
// For large blobs, use DownloadBlob.
func (c *Client) GetBlob(ctx context.Context, container, blob string) ([]byte, error) {
	if err := validateShareAndPath(container, blob); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/" + container + "/" + blob,
	})
	if err != nil {
		return nil, errors.NewResourceError("getBlob", container, blob, err)
	}
	return resp.Body, nil
}

// DeleteBlob deletes a blob.
func (c *Client) DeleteBlob(ctx context.Context, container, blob string) error {
	if err := validateShareAndPath(container, blob); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    "/" + container + "/" + blob,
		OKCodes: []int{http.StatusAccepted},
	})
	if err != nil {
		return errors.NewResourceError("deleteBlob", container, blob, err)
	}
	return nil
}

// GetBlobProperties retrieves a blob's properties without its content.
func (c *Client) GetBlobProperties(ctx context.Context, container, blob string) (*storagetypes.FileProperties, error) {
	if err := validateShareAndPath(container, blob); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/" + container + "/" + blob,
	})
	if err != nil {
		return nil, errors.NewResourceError("getBlobProperties", container, blob, err)
	}
	return filePropertiesFromResponse(resp), nil
}

// UploadBlob uploads size bytes from a stream to a blob in chunks, using the
// same bounded engine as file uploads over the blob range-write primitive.
func (c *Client) UploadBlob(
	ctx context.Context,
	container, blob string,
	reader io.Reader,
	size int64,
	opts ...storagetypes.UploadOption,
) (*storagetypes.UploadResult, error) {
	if err := validateShareAndPath(container, blob); err != nil {
		return nil, err
	}
	if err := validation.ValidateDeclaredSize(size); err != nil {
		return nil, err
	}

	optCfg := c.uploadOptions(opts)
	computeMD5 := optCfg.StoreContentMD5 && optCfg.ContentMD5 == ""

	var src chunk.Source
	if ra, ok := reader.(io.ReaderAt); ok {
		srcOpts := []chunk.FileSourceOption{chunk.WithZeroChunkDetection()}
		if computeMD5 {
			srcOpts = append(srcOpts, chunk.WithContentMD5())
		}
		src = chunk.NewFileSource(ra, size, srcOpts...)
	} else {
		src = chunk.NewStreamSource(reader, size, computeMD5)
	}

	return c.uploadCommon(ctx, "uploadBlob", container, blob, "blob", src, optCfg)
}

// UploadBlobBuffer uploads an in-memory payload to a blob in chunks.
func (c *Client) UploadBlobBuffer(
	ctx context.Context,
	container, blob string,
	data []byte,
	opts ...storagetypes.UploadOption,
) (*storagetypes.UploadResult, error) {
	return c.UploadBlob(ctx, container, blob, bytes.NewReader(data), int64(len(data)), opts...)
}

// DownloadBlob downloads a blob into a positional writer in chunks.
func (c *Client) DownloadBlob(
	ctx context.Context,
	container, blob string,
	dst io.WriterAt,
	opts ...storagetypes.DownloadOption,
) (*storagetypes.DownloadResult, error) {
	if err := validateShareAndPath(container, blob); err != nil {
		return nil, err
	}
	return c.downloadCommon(ctx, "downloadBlob", container, blob, dst, opts)
}

// createBlob creates an empty chunked blob of the declared size.
func (c *Client) createBlob(
	ctx context.Context,
	container, blob string,
	size int64,
	contentType string,
	metadata map[string]string,
) error {
	header := http.Header{}
	header.Set(rest.HeaderResourceType, "blob")
	header.Set(rest.HeaderBlobType, "range")
	header.Set(rest.HeaderContentLength, strconv.FormatInt(size, 10))
	if contentType != "" {
		header.Set(rest.HeaderContentTypeSet, contentType)
	}
	setMetadataHeaders(header, metadata)

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPut,
		Path:    "/" + container + "/" + blob,
		Header:  header,
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewResourceError("createBlob", container, blob, err)
	}
	return nil
}
