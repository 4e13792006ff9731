package storage

import (
	"context"
	"encoding/xml"
	"net/http"

	"github.com/google/go-querystring/query"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/validation"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// CreateDirectory creates a directory within a share. The parent directory
// must already exist.
func (c *Client) CreateDirectory(ctx context.Context, share, path string) error {
	if err := validateShareAndPath(share, path); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPut,
		Path:    "/" + share + "/" + path,
		Query:   restypeQuery("directory"),
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewResourceError("createDirectory", share, path, err)
	}
	return nil
}

// DeleteDirectory deletes an empty directory.
// The service rejects deletion of non-empty directories.
func (c *Client) DeleteDirectory(ctx context.Context, share, path string) error {
	if err := validateShareAndPath(share, path); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    "/" + share + "/" + path,
		Query:   restypeQuery("directory"),
		OKCodes: []int{http.StatusAccepted},
	})
	if err != nil {
		return errors.NewResourceError("deleteDirectory", share, path, err)
	}
	return nil
}

// DirectoryExists reports whether a directory exists.
func (c *Client) DirectoryExists(ctx context.Context, share, path string) (bool, error) {
	if err := validateShareAndPath(share, path); err != nil {
		return false, err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/" + share + "/" + path,
		Query:  restypeQuery("directory"),
	})
	if err != nil {
		if errors.IsResourceNotFound(err) || errors.IsShareNotFound(err) {
			return false, nil
		}
		return false, errors.NewResourceError("directoryExists", share, path, err)
	}
	return true, nil
}

// directoryListing is the XML enumeration document for directory contents.
type directoryListing struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Entries struct {
		Directories []struct {
			Name string `xml:"Name"`
		} `xml:"Directory"`
		Files []struct {
			Name          string `xml:"Name"`
			ContentLength int64  `xml:"Properties>Content-Length"`
		} `xml:"File"`
	} `xml:"Entries"`
	NextMarker string `xml:"NextMarker"`
}

// ListDirectoriesAndFiles lists the immediate children of a directory.
// Pass an empty path to list the share root. Use WithMarker with the
// returned NextMarker to fetch subsequent pages.
func (c *Client) ListDirectoriesAndFiles(
	ctx context.Context,
	share, path string,
	opts ...storagetypes.ListOption,
) (*storagetypes.ListDirectoryResult, error) {
	if err := validation.ValidateShareName(share); err != nil {
		return nil, err
	}
	if path != "" {
		if err := validation.ValidateResourcePath(path); err != nil {
			return nil, err
		}
	}

	cfg := &storagetypes.ListOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q, err := query.Values(listQuery{
		Comp:       "list",
		Restype:    "directory",
		Prefix:     cfg.Prefix,
		Marker:     cfg.Marker,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, errors.NewResourceError("listDirectory", share, path, err)
	}

	reqPath := "/" + share
	if path != "" {
		reqPath += "/" + path
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   reqPath,
		Query:  q,
	})
	if err != nil {
		return nil, errors.NewResourceError("listDirectory", share, path, err)
	}

	var listing directoryListing
	if err := xml.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewResourceError("listDirectory", share, path, err).
			WithMessage("malformed listing")
	}

	result := &storagetypes.ListDirectoryResult{
		NextMarker: listing.NextMarker,
	}
	for _, d := range listing.Entries.Directories {
		result.Directories = append(result.Directories, storagetypes.DirectoryItem{Name: d.Name})
	}
	for _, f := range listing.Entries.Files {
		result.Files = append(result.Files, storagetypes.FileItem{
			Name:          f.Name,
			ContentLength: f.ContentLength,
		})
	}
	return result, nil
}

// validateShareAndPath runs the standard share and path checks.
func validateShareAndPath(share, path string) error {
	if err := validation.ValidateShareName(share); err != nil {
		return err
	}
	return validation.ValidateResourcePath(path)
}
