package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"

	"github.com/tidecloud/tidecloud-sdk-go/errors"
	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
	"github.com/tidecloud/tidecloud-sdk-go/internal/validation"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

// tableQuery is the query parameter set for entity queries.
type tableQuery struct {
	Filter           string `url:"filter,omitempty"`
	Top              int    `url:"top,omitempty"`
	NextPartitionKey string `url:"nextpk,omitempty"`
	NextRowKey       string `url:"nextrk,omitempty"`
}

// CreateTable creates a new table.
func (c *Client) CreateTable(ctx context.Context, table string) error {
	if err := validation.ValidateTableName(table); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"TableName": table})
	if err != nil {
		return errors.NewError("createTable", err)
	}

	_, err = c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPost,
		Path:    "/tables",
		Header:  jsonHeaders(),
		Body:    body,
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewError("createTable", err).WithShare(table)
	}
	return nil
}

// DeleteTable deletes a table and all of its entities.
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	if err := validation.ValidateTableName(table); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    "/tables/" + table,
		OKCodes: []int{http.StatusNoContent},
	})
	if err != nil {
		return errors.NewError("deleteTable", err).WithShare(table)
	}
	return nil
}

// TableExists reports whether a table exists.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	if err := validation.ValidateTableName(table); err != nil {
		return false, err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodHead,
		Path:   "/tables/" + table,
	})
	if err != nil {
		if errors.IsResourceNotFound(err) || errors.IsShareNotFound(err) {
			return false, nil
		}
		return false, errors.NewError("tableExists", err).WithShare(table)
	}
	return true, nil
}

// ListTables lists the account's tables.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/tables",
		Header: jsonHeaders(),
	})
	if err != nil {
		return nil, errors.NewError("listTables", err)
	}

	var listing struct {
		Value []struct {
			TableName string `json:"TableName"`
		} `json:"value"`
	}
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewError("listTables", err).WithMessage("malformed listing")
	}

	names := make([]string, 0, len(listing.Value))
	for _, t := range listing.Value {
		names = append(names, t.TableName)
	}
	return names, nil
}

// InsertEntity inserts a new entity. The entity must carry PartitionKey and
// RowKey properties; inserting over an existing entity fails with
// ErrResourceAlreadyExists.
func (c *Client) InsertEntity(ctx context.Context, table string, entity storagetypes.Entity) error {
	if err := validation.ValidateTableName(table); err != nil {
		return err
	}
	if err := validateEntityKeys(entity); err != nil {
		return errors.NewError("insertEntity", err).WithShare(table)
	}

	body, err := json.Marshal(entity)
	if err != nil {
		return errors.NewError("insertEntity", err).WithShare(table)
	}

	_, err = c.api.Do(ctx, &rest.Request{
		Method:  http.MethodPost,
		Path:    "/tables/" + table + "/entities",
		Header:  jsonHeaders(),
		Body:    body,
		OKCodes: []int{http.StatusCreated},
	})
	if err != nil {
		return errors.NewError("insertEntity", err).WithShare(table)
	}
	return nil
}

// MergeEntity updates an existing entity, merging the given properties into
// those already stored. Properties absent from entity are left intact.
func (c *Client) MergeEntity(ctx context.Context, table string, entity storagetypes.Entity) error {
	return c.writeEntity(ctx, "mergeEntity", http.MethodPatch, table, entity)
}

// ReplaceEntity replaces an existing entity wholesale with the given
// properties.
func (c *Client) ReplaceEntity(ctx context.Context, table string, entity storagetypes.Entity) error {
	return c.writeEntity(ctx, "replaceEntity", http.MethodPut, table, entity)
}

// writeEntity is the shared body of MergeEntity and ReplaceEntity.
func (c *Client) writeEntity(
	ctx context.Context,
	op, method, table string,
	entity storagetypes.Entity,
) error {
	if err := validation.ValidateTableName(table); err != nil {
		return err
	}
	if err := validateEntityKeys(entity); err != nil {
		return errors.NewError(op, err).WithShare(table)
	}

	body, err := json.Marshal(entity)
	if err != nil {
		return errors.NewError(op, err).WithShare(table)
	}

	pk, _ := entity["PartitionKey"].(string)
	rk, _ := entity["RowKey"].(string)
	_, err = c.api.Do(ctx, &rest.Request{
		Method:  method,
		Path:    entityPath(table, pk, rk),
		Header:  jsonHeaders(),
		Body:    body,
		OKCodes: []int{http.StatusNoContent},
	})
	if err != nil {
		return errors.NewError(op, err).WithShare(table)
	}
	return nil
}

// DeleteEntity deletes the entity with the given keys.
func (c *Client) DeleteEntity(ctx context.Context, table, partitionKey, rowKey string) error {
	if err := validation.ValidateTableName(table); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, &rest.Request{
		Method:  http.MethodDelete,
		Path:    entityPath(table, partitionKey, rowKey),
		OKCodes: []int{http.StatusNoContent},
	})
	if err != nil {
		return errors.NewError("deleteEntity", err).WithShare(table)
	}
	return nil
}

// GetEntity retrieves a single entity by its keys.
func (c *Client) GetEntity(ctx context.Context, table, partitionKey, rowKey string) (storagetypes.Entity, error) {
	if err := validation.ValidateTableName(table); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   entityPath(table, partitionKey, rowKey),
		Header: jsonHeaders(),
	})
	if err != nil {
		return nil, errors.NewError("getEntity", err).WithShare(table)
	}

	var entity storagetypes.Entity
	if err := json.Unmarshal(resp.Body, &entity); err != nil {
		return nil, errors.NewError("getEntity", err).WithShare(table).
			WithMessage("malformed entity")
	}
	return entity, nil
}

// QueryEntities queries a table's entities. filter is a service-side filter
// expression (empty for all entities) and top caps the page size (0 for the
// service default). Pass the returned continuation keys back in via
// nextPartitionKey/nextRowKey to fetch subsequent pages.
func (c *Client) QueryEntities(
	ctx context.Context,
	table, filter string,
	top int,
	nextPartitionKey, nextRowKey string,
) (*storagetypes.QueryEntitiesResult, error) {
	if err := validation.ValidateTableName(table); err != nil {
		return nil, err
	}

	q, err := query.Values(tableQuery{
		Filter:           filter,
		Top:              top,
		NextPartitionKey: nextPartitionKey,
		NextRowKey:       nextRowKey,
	})
	if err != nil {
		return nil, errors.NewError("queryEntities", err).WithShare(table)
	}

	resp, err := c.api.Do(ctx, &rest.Request{
		Method: http.MethodGet,
		Path:   "/tables/" + table + "/entities",
		Query:  q,
		Header: jsonHeaders(),
	})
	if err != nil {
		return nil, errors.NewError("queryEntities", err).WithShare(table)
	}

	var listing struct {
		Value []storagetypes.Entity `json:"value"`
	}
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, errors.NewError("queryEntities", err).WithShare(table).
			WithMessage("malformed query result")
	}

	return &storagetypes.QueryEntitiesResult{
		Entities:         listing.Value,
		NextPartitionKey: resp.Header.Get(rest.HeaderNextPartitionKey),
		NextRowKey:       resp.Header.Get(rest.HeaderNextRowKey),
	}, nil
}

// entityPath addresses a single entity by its keys.
func entityPath(table, partitionKey, rowKey string) string {
	return fmt.Sprintf("/tables/%s/entities/%s/%s",
		table, url.PathEscape(partitionKey), url.PathEscape(rowKey))
}

// validateEntityKeys checks the required key properties.
func validateEntityKeys(entity storagetypes.Entity) error {
	for _, key := range []string{"PartitionKey", "RowKey"} {
		v, ok := entity[key].(string)
		if !ok || v == "" {
			return fmt.Errorf("%w: entity requires a non-empty %s", errors.ErrInvalidInput, key)
		}
	}
	return nil
}

// jsonHeaders returns the standard headers for JSON table calls.
func jsonHeaders() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	return header
}
