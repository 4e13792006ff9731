// Package rest implements the HTTP transport for the Tide Cloud storage
// service: request construction, shared-key signing, retries, and service
// error decoding.
//
// Retry and timeout policy live entirely in this layer (delegated to
// go-retryablehttp); the transfer engine above it only ever sees success or
// failure per call.
package rest

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
)

// DefaultAPIVersion is the service protocol version this SDK speaks.
const DefaultAPIVersion = "2024-08-01"

// Header names of the Tide Cloud REST protocol.
const (
	HeaderVersion         = "x-tc-version"
	HeaderDate            = "x-tc-date"
	HeaderClientRequestID = "x-tc-client-request-id"
	HeaderRequestID       = "x-tc-request-id"
	HeaderContentLength   = "x-tc-content-length"
	HeaderResourceType    = "x-tc-type"
	HeaderWrite           = "x-tc-write"
	HeaderShareQuota      = "x-tc-share-quota"
	HeaderBlobType        = "x-tc-blob-type"
	HeaderRangeGetMD5     = "x-tc-range-get-content-md5"
	HeaderContentMD5Set   = "x-tc-content-md5"
	HeaderContentTypeSet  = "x-tc-content-type"
	HeaderMetaPrefix      = "x-tc-meta-"

	// Table query continuation headers.
	HeaderNextPartitionKey = "x-tc-continuation-next-partition-key"
	HeaderNextRowKey       = "x-tc-continuation-next-row-key"
)

// API is the transport surface consumed by the operation layer.
// It exists so that operations can be tested against a mock transport.
type API interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request describes one service call.
type Request struct {
	// Method is the HTTP method
	Method string

	// Path is the resource path below the account root, e.g. "/share/dir/file"
	Path string

	// Query holds the query parameters (comp, restype, list options)
	Query url.Values

	// Header holds protocol headers for this call
	Header http.Header

	// Body is the request payload, nil for none
	Body []byte

	// OKCodes are the status codes treated as success. Empty means any 2xx.
	OKCodes []int
}

// Response is the decoded outcome of one service call.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Header holds the response headers
	Header http.Header

	// Body is the fully-read response payload
	Body []byte
}

// ETag returns the response's entity tag.
func (r *Response) ETag() string {
	return r.Header.Get("ETag")
}

// RequestID returns the service request ID for support correlation.
func (r *Response) RequestID() string {
	return r.Header.Get(HeaderRequestID)
}

// LastModified returns the parsed Last-Modified header, zero if absent.
func (r *Response) LastModified() time.Time {
	t, err := http.ParseTime(r.Header.Get("Last-Modified"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// ContentLength returns the parsed x-tc-content-length header, falling back
// to Content-Length, or 0.
func (r *Response) ContentLength() int64 {
	for _, h := range []string{HeaderContentLength, "Content-Length"} {
		if v := r.Header.Get(h); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// Metadata extracts user metadata from x-tc-meta-* response headers.
func (r *Response) Metadata() map[string]string {
	var meta map[string]string
	for name := range r.Header {
		key, ok := metaKey(name)
		if !ok {
			continue
		}
		if meta == nil {
			meta = make(map[string]string)
		}
		meta[key] = r.Header.Get(name)
	}
	return meta
}

// Options configures the transport client.
type Options struct {
	// MaxRetries is the retry budget for transient failures. Default 3.
	MaxRetries int

	// Timeout is the per-call HTTP timeout. Zero means no timeout.
	Timeout time.Duration

	// APIVersion overrides the protocol version header.
	APIVersion string

	// Logger receives request/response debug logging. May be nil.
	Logger logrus.FieldLogger

	// HTTPClient replaces the underlying HTTP client. May be nil.
	HTTPClient *http.Client
}

// Client is the production transport: signed requests over retryablehttp.
type Client struct {
	http       *retryablehttp.Client
	endpoint   *url.URL
	account    string
	key        []byte
	apiVersion string
	logger     logrus.FieldLogger
}

// NewClient creates a transport for the given account against endpoint.
// accountKey is the base64-encoded shared key.
func NewClient(account, accountKey, endpoint string, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.NewError("newClient", err).WithMessage("invalid endpoint")
	}

	key, err := decodeAccountKey(accountKey)
	if err != nil {
		return nil, errors.NewError("newClient", err).WithMessage("invalid account key")
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.Logger = nil
	if opts.Logger != nil {
		rc.Logger = opts.Logger
	}
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Client{
		http:       rc,
		endpoint:   u,
		account:    account,
		key:        key,
		apiVersion: apiVersion,
		logger:     opts.Logger,
	}, nil
}

// Do executes one signed service call and decodes failures into typed errors.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	u := *c.endpoint
	u.Path = joinPath(u.Path, req.Path)
	if req.Query != nil {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, errors.NewError("request", err)
	}

	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set(HeaderVersion, c.apiVersion)
	httpReq.Header.Set(HeaderDate, time.Now().UTC().Format(http.TimeFormat))
	httpReq.Header.Set(HeaderClientRequestID, uuid.NewV4().String())
	httpReq.Header.Set("User-Agent", "tidecloud-sdk-go/"+c.apiVersion)
	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
	}

	if err := c.sign(httpReq.Request, int64(len(req.Body))); err != nil {
		return nil, errors.NewError("request", err).WithMessage("signing failed")
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method": req.Method,
			"url":    u.String(),
		}).Debug("storage request")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.NewError("request", fmt.Errorf("%w: %w", errors.ErrConnection, err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.NewError("request", fmt.Errorf("%w: %w", errors.ErrConnection, err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method":     req.Method,
			"url":        u.String(),
			"status":     resp.StatusCode,
			"request-id": resp.RequestID(),
		}).Debug("storage response")
	}

	if !statusOK(resp.StatusCode, req.OKCodes) {
		return nil, decodeServiceError(resp)
	}
	return resp, nil
}

// statusOK reports whether code is an accepted status for the request.
func statusOK(code int, okCodes []int) bool {
	if len(okCodes) == 0 {
		return code >= 200 && code < 300
	}
	for _, ok := range okCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// serviceErrorBody is the XML error document the service returns.
type serviceErrorBody struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// decodeServiceError turns a failed response into a typed error chain:
// a matching sentinel (when the service code has one) wrapping the decoded
// ServiceError. Integrity codes are additionally marked not retryable.
func decodeServiceError(resp *Response) error {
	var body serviceErrorBody
	_ = xml.Unmarshal(resp.Body, &body)

	svcErr := &errors.ServiceError{
		Code:       body.Code,
		Message:    body.Message,
		StatusCode: resp.StatusCode,
		RequestID:  resp.RequestID(),
	}
	if svcErr.Code == "" {
		svcErr.Code = http.StatusText(resp.StatusCode)
	}

	if sentinel := sentinelFor(svcErr.Code, resp.StatusCode); sentinel != nil {
		err := fmt.Errorf("%w: %w", sentinel, svcErr)
		if errors.IsIntegrity(sentinel) {
			return errors.MarkNotRetryable(err)
		}
		return err
	}
	return svcErr
}

// sentinelFor maps service error codes (and status fallbacks) to sentinels.
func sentinelFor(code string, status int) error {
	switch code {
	case "ShareNotFound", "ContainerNotFound":
		return errors.ErrShareNotFound
	case "ResourceNotFound", "FileNotFound", "BlobNotFound", "TableNotFound", "EntityNotFound":
		return errors.ErrResourceNotFound
	case "ShareAlreadyExists", "ContainerAlreadyExists":
		return errors.ErrShareAlreadyExists
	case "ResourceAlreadyExists", "TableAlreadyExists", "EntityAlreadyExists":
		return errors.ErrResourceAlreadyExists
	case "AuthenticationFailed", "InsufficientAccountPermissions":
		return errors.ErrAccessDenied
	case "InvalidRange", "InvalidHeaderValue":
		return errors.ErrInvalidRange
	case "Md5Mismatch":
		return errors.ErrMD5Mismatch
	case "RequestBodyTooLarge":
		return errors.ErrRangeTooLarge
	}

	switch status {
	case http.StatusNotFound:
		return errors.ErrResourceNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errors.ErrAccessDenied
	case http.StatusConflict:
		return errors.ErrResourceAlreadyExists
	case http.StatusRequestedRangeNotSatisfiable:
		return errors.ErrInvalidRange
	}
	return nil
}

// joinPath joins the endpoint base path with the resource path.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	if p == "" || p == "/" {
		return base
	}
	return base + p
}

// metaKey strips the metadata header prefix, reporting whether name carried it.
func metaKey(name string) (string, bool) {
	canonical := http.CanonicalHeaderKey(name)
	prefix := http.CanonicalHeaderKey(HeaderMetaPrefix)
	if len(canonical) <= len(prefix) || canonical[:len(prefix)] != prefix {
		return "", false
	}
	return canonical[len(prefix):], true
}
