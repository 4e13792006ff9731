package storage

import (
	"fmt"
	"sync"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// Client represents a Tide Cloud storage client with configurable options.
// It provides thread-safe access to share, file, blob, and table operations
// with built-in retry logic, concurrency control, and progress tracking.
type Client struct {
	// api is the underlying REST transport
	api rest.API

	// config holds the client configuration snapshot
	config storagetypes.ClientConfig

	// mu protects concurrent access to client configuration
	mu sync.RWMutex
}

// New creates a new storage client for the given account with the provided
// options. accountKey is the base64-encoded shared key.
//
// Example:
//
//	client, err := storage.New("myaccount", accountKey,
//	    storage.WithParallelism(4),
//	    storage.WithMaxRetries(3),
//	)
func New(accountName, accountKey string, opts ...storagetypes.Option) (*Client, error) {
	if accountName == "" {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("account name is required")
	}

	cfg := &storagetypes.ClientConfig{
		AccountName: accountName,
		AccountKey:  accountKey,
		UseHTTPS:    true,
		MaxRetries:  3,
		Parallelism: storagetypes.DefaultParallelism,
		ChunkSize:   storagetypes.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		scheme := "https"
		if !cfg.UseHTTPS {
			scheme = "http"
		}
		endpoint = fmt.Sprintf("%s://%s.storage.tidecloud.net", scheme, accountName)
	}

	api, err := rest.NewClient(accountName, accountKey, endpoint, rest.Options{
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		APIVersion: cfg.APIVersion,
		Logger:     cfg.Logger,
		HTTPClient: cfg.CustomHTTPClient,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:    api,
		config: *cfg,
	}, nil
}

// NewWithTransport creates a new storage client with a custom transport
// implementation. This is primarily used for testing with mocked transports.
func NewWithTransport(api rest.API, opts ...storagetypes.Option) *Client {
	cfg := &storagetypes.ClientConfig{
		Parallelism: storagetypes.DefaultParallelism,
		ChunkSize:   storagetypes.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		api:    api,
		config: *cfg,
	}
}

// Parallelism returns the client-level default for concurrent range operations.
func (c *Client) Parallelism() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Parallelism
}

// ChunkSize returns the client-level default range size in bytes.
func (c *Client) ChunkSize() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.ChunkSize
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
