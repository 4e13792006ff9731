package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/testutil"
)

func TestCreateShare(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusCreated, nil), nil
		},
	}
	client := NewWithTransport(transport)

	require.NoError(t, client.CreateShare(context.Background(), "myshare"))

	reqs := transport.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/myshare", reqs[0].Path)
	assert.Equal(t, "share", reqs[0].Query.Get("restype"))
	assert.Equal(t, []int{http.StatusCreated}, reqs[0].OKCodes)
}

func TestCreateShareRejectsInvalidName(t *testing.T) {
	transport := &testutil.MockTransport{}
	client := NewWithTransport(transport)

	err := client.CreateShare(context.Background(), "Bad_Name")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidShareName)
	assert.Zero(t, transport.RequestCount(), "validation failures never reach the transport")
}

func TestShareExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		client := NewWithTransport(&testutil.MockTransport{})
		exists, err := client.ShareExists(context.Background(), "myshare")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("not found is not an error", func(t *testing.T) {
		transport := &testutil.MockTransport{
			DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
				return nil, errors.ErrShareNotFound
			},
		}
		client := NewWithTransport(transport)
		exists, err := client.ShareExists(context.Background(), "myshare")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("other failures propagate", func(t *testing.T) {
		transport := &testutil.MockTransport{
			DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
				return nil, errors.ErrAccessDenied
			},
		}
		client := NewWithTransport(transport)
		_, err := client.ShareExists(context.Background(), "myshare")
		assert.ErrorIs(t, err, errors.ErrAccessDenied)
	})
}

func TestListShares(t *testing.T) {
	listing := `<?xml version="1.0"?>
<EnumerationResults>
  <Shares>
    <Share><Name>alpha</Name><Properties><QuotaGB>10</QuotaGB></Properties></Share>
    <Share><Name>beta</Name><Properties><QuotaGB>20</QuotaGB></Properties></Share>
  </Shares>
  <NextMarker>page2</NextMarker>
</EnumerationResults>`

	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusOK, []byte(listing)), nil
		},
	}
	client := NewWithTransport(transport)

	result, err := client.ListShares(context.Background(),
		WithPrefix("a"), WithMaxResults(50))
	require.NoError(t, err)

	require.Len(t, result.Shares, 2)
	assert.Equal(t, "alpha", result.Shares[0].Name)
	assert.Equal(t, 10, result.Shares[0].QuotaGB)
	assert.Equal(t, "page2", result.NextMarker)

	req := transport.Requests()[0]
	assert.Equal(t, "list", req.Query.Get("comp"))
	assert.Equal(t, "a", req.Query.Get("prefix"))
	assert.Equal(t, "50", req.Query.Get("maxresults"))
}

func TestSetShareQuota(t *testing.T) {
	transport := &testutil.MockTransport{}
	client := NewWithTransport(transport)

	require.NoError(t, client.SetShareQuota(context.Background(), "myshare", 100))

	req := transport.Requests()[0]
	assert.Equal(t, "properties", req.Query.Get("comp"))
	assert.Equal(t, "100", req.Header.Get(rest.HeaderShareQuota))

	err := client.SetShareQuota(context.Background(), "myshare", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDeleteShare(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusAccepted, nil), nil
		},
	}
	client := NewWithTransport(transport)

	require.NoError(t, client.DeleteShare(context.Background(), "myshare"))
	req := transport.Requests()[0]
	assert.Equal(t, http.MethodDelete, req.Method)
}
