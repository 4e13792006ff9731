package storage

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/validation"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// listQuery is the query parameter set for enumeration calls, encoded with
// go-querystring.
type listQuery struct {
	Comp       string `url:"comp"`
	Restype    string `url:"restype,omitempty"`
	Prefix     string `url:"prefix,omitempty"`
	Marker     string `url:"marker,omitempty"`
	MaxResults int    `url:"maxresults,omitempty"`
}

// CreateShare creates a new share.
// Returns ErrShareAlreadyExists if a share with the same name exists.
func (c *Client) CreateShare(ctx context.Context, share string) error {
	if err := validation.ValidateShareName(share); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPut,
		Path:    "/" + share,
		Query:   restypeQuery("share"),
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewShareError("createShare", share, err)
	}
	return nil
}

// DeleteShare deletes a share and all of its contents.
func (c *Client) DeleteShare(ctx context.Context, share string) error {
	if err := validation.ValidateShareName(share); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    "/" + share,
		Query:   restypeQuery("share"),
		OKCodes: []int{http.StatusAccepted},
	})
	if err != nil {
		return errors.NewShareError("deleteShare", share, err)
	}
	return nil
}

// ShareExists reports whether a share exists.
func (c *Client) ShareExists(ctx context.Context, share string) (bool, error) {
	if err := validation.ValidateShareName(share); err != nil {
		return false, err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/" + share,
		Query:  restypeQuery("share"),
	})
	if err != nil {
		if errors.IsShareNotFound(err) || errors.IsResourceNotFound(err) {
			return false, nil
		}
		return false, errors.NewShareError("shareExists", share, err)
	}
	return true, nil
}

// GetShareProperties retrieves a share's properties and metadata.
func (c *Client) GetShareProperties(ctx context.Context, share string) (*storagetypes.ShareProperties, error) {
	if err := validation.ValidateShareName(share); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/" + share,
		Query:  restypeQuery("share"),
	})
	if err != nil {
		return nil, errors.NewShareError("getShareProperties", share, err)
	}

	quota, _ := strconv.Atoi(resp.Header.Get(rest.HeaderShareQuota))
	return &storagetypes.ShareProperties{
		QuotaGB:      quota,
		ETag:         resp.ETag(),
		LastModified: resp.LastModified(),
		Metadata:     resp.Metadata(),
	}, nil
}

// SetShareQuota sets a share's quota in gigabytes.
func (c *Client) SetShareQuota(ctx context.Context, share string, quotaGB int) error {
	if err := validation.ValidateShareName(share); err != nil {
		return err
	}
	if quotaGB <= 0 {
		return errors.NewShareError("setShareQuota", share, errors.ErrInvalidInput).
			WithMessage("quota must be positive")
	}

	q := restypeQuery("share")
	q.Set("comp", "properties")
	header := http.Header{}
	header.Set(rest.HeaderShareQuota, strconv.Itoa(quotaGB))

	_, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodPut,
		Path:   "/" + share,
		Query:  q,
		Header: header,
	})
	if err != nil {
		return errors.NewShareError("setShareQuota", share, err)
	}
	return nil
}

// shareListing is the XML enumeration document for shares.
type shareListing struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Shares  []struct {
		Name         string `xml:"Name"`
		QuotaGB      int    `xml:"Properties>QuotaGB"`
		LastModified string `xml:"Properties>LastModified"`
	} `xml:"Shares>Share"`
	NextMarker string `xml:"NextMarker"`
}

// ListShares lists the account's shares with support for prefix filtering
// and pagination. Use WithMarker with the returned NextMarker to fetch
// subsequent pages.
func (c *Client) ListShares(ctx context.Context, opts ...storagetypes.ListOption) (*storagetypes.ListSharesResult, error) {
	cfg := &storagetypes.ListOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q, err := query.Values(listQuery{
		Comp:       "list",
		Prefix:     cfg.Prefix,
		Marker:     cfg.Marker,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, errors.NewError("listShares", err)
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/",
		Query:  q,
	})
	if err != nil {
		return nil, errors.NewError("listShares", err)
	}

	var listing shareListing
	if err := xml.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewError("listShares", err).WithMessage("malformed listing")
	}

	result := &storagetypes.ListSharesResult{
		NextMarker: listing.NextMarker,
	}
	for _, s := range listing.Shares {
		item := storagetypes.ShareItem{
			Name:    s.Name,
			QuotaGB: s.QuotaGB,
		}
		if t, err := http.ParseTime(s.LastModified); err == nil {
			item.LastModified = t
		}
		result.Shares = append(result.Shares, item)
	}
	return result, nil
}

// restypeQuery builds the restype query parameter set.
func restypeQuery(restype string) url.Values {
	return url.Values{"restype": {restype}}
}
