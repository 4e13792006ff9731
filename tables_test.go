package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/testutil"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

func TestCreateTable(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusCreated, nil), nil
		},
	}
	client := NewWithTransport(transport)

	require.NoError(t, client.CreateTable(context.Background(), "Customers"))

	req := transport.Requests()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/tables", req.Path)
	assert.JSONEq(t, `{"TableName":"Customers"}`, string(req.Body))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestCreateTableRejectsInvalidName(t *testing.T) {
	transport := &testutil.MockTransport{}
	client := NewWithTransport(transport)

	err := client.CreateTable(context.Background(), "1bad")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Zero(t, transport.RequestCount())
}

func TestInsertEntity(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusCreated, nil), nil
		},
	}
	client := NewWithTransport(transport)

	entity := storagetypes.Entity{
		"PartitionKey": "eu",
		"RowKey":       "cust-1",
		"Name":         "Alice",
		"Visits":       float64(3),
	}
	require.NoError(t, client.InsertEntity(context.Background(), "Customers", entity))

	req := transport.Requests()[0]
	assert.Equal(t, "/tables/Customers/entities", req.Path)

	var sent storagetypes.Entity
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, entity, sent)
}

func TestEntityKeyValidation(t *testing.T) {
	transport := &testutil.MockTransport{}
	client := NewWithTransport(transport)
	ctx := context.Background()

	err := client.InsertEntity(ctx, "Customers", storagetypes.Entity{"RowKey": "r"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	err = client.MergeEntity(ctx, "Customers", storagetypes.Entity{"PartitionKey": "p"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	err = client.ReplaceEntity(ctx, "Customers", storagetypes.Entity{"PartitionKey": "", "RowKey": "r"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	assert.Zero(t, transport.RequestCount())
}

func TestMergeAndReplaceEntity(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusNoContent, nil), nil
		},
	}
	client := NewWithTransport(transport)
	entity := storagetypes.Entity{"PartitionKey": "p", "RowKey": "r", "V": "1"}

	require.NoError(t, client.MergeEntity(context.Background(), "Customers", entity))
	require.NoError(t, client.ReplaceEntity(context.Background(), "Customers", entity))

	reqs := transport.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "/tables/Customers/entities/p/r", reqs[0].Path)
}

func TestGetEntity(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusOK,
				[]byte(`{"PartitionKey":"p","RowKey":"r","Name":"Alice"}`)), nil
		},
	}
	client := NewWithTransport(transport)

	entity, err := client.GetEntity(context.Background(), "Customers", "p", "r")
	require.NoError(t, err)
	assert.Equal(t, "Alice", entity["Name"])
}

func TestDeleteEntity(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusNoContent, nil), nil
		},
	}
	client := NewWithTransport(transport)

	require.NoError(t, client.DeleteEntity(context.Background(), "Customers", "p", "r"))
	assert.Equal(t, http.MethodDelete, transport.Requests()[0].Method)
}

func TestQueryEntities(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			resp := testutil.OKResponse(http.StatusOK,
				[]byte(`{"value":[{"PartitionKey":"p","RowKey":"r1"},{"PartitionKey":"p","RowKey":"r2"}]}`))
			resp.Header.Set(rest.HeaderNextPartitionKey, "p")
			resp.Header.Set(rest.HeaderNextRowKey, "r3")
			return resp, nil
		},
	}
	client := NewWithTransport(transport)

	result, err := client.QueryEntities(context.Background(), "Customers",
		"Visits gt 2", 100, "", "")
	require.NoError(t, err)

	require.Len(t, result.Entities, 2)
	assert.Equal(t, "r1", result.Entities[0]["RowKey"])
	assert.Equal(t, "p", result.NextPartitionKey)
	assert.Equal(t, "r3", result.NextRowKey)

	req := transport.Requests()[0]
	assert.Equal(t, "Visits gt 2", req.Query.Get("filter"))
	assert.Equal(t, "100", req.Query.Get("top"))
}

func TestListTables(t *testing.T) {
	transport := &testutil.MockTransport{
		DoFunc: func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
			return testutil.OKResponse(http.StatusOK,
				[]byte(`{"value":[{"TableName":"Customers"},{"TableName":"Orders"}]}`)), nil
		},
	}
	client := NewWithTransport(transport)

	names, err := client.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Customers", "Orders"}, names)
}
