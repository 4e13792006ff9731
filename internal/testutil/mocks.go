// Package testutil provides test utilities and mocks for storage operations.
// This package is internal and should only be used for testing within the SDK.
package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/tidecloud/tidecloud-sdk-go/internal/rest"
)

// MockTransport is a mock implementation of the rest.API interface for
// testing. The DoFunc field customizes the response; every request is
// recorded for later assertion.
type MockTransport struct {
	DoFunc func(ctx context.Context, req *rest.Request) (*rest.Response, error)

	mu       sync.Mutex
	requests []*rest.Request
}

// Do dispatches to DoFunc after recording the request. Without a DoFunc it
// returns an empty 200 response.
func (m *MockTransport) Do(ctx context.Context, req *rest.Request) (*rest.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return &rest.Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
}

// Requests returns a snapshot of all requests seen so far.
func (m *MockTransport) Requests() []*rest.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*rest.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests seen so far.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// OKResponse builds a success response with the given status and body.
func OKResponse(status int, body []byte) *rest.Response {
	return &rest.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       body,
	}
}
